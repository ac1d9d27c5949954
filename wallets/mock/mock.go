package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"anarchy.ttfm/straight/wallets"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// Mock implements the wallets.Wallet interface for testing purposes.
// Deposits land as unconfirmed balance until Confirm is called.
type Mock struct {
	mu        sync.Mutex
	addresses map[uint64]wallets.Address // index -> address
	nextIndex uint64
	syncErr   error
}

var _ wallets.Wallet = (*Mock)(nil)

type Config struct {
	// Addresses pre-derived at startup, starting at index 0
	Preallocate uint64
}

// New creates a new Mock wallet.
func New(config Config) *Mock {
	m := &Mock{
		addresses: make(map[uint64]wallets.Address),
	}
	for range config.Preallocate {
		m.derive()
	}
	return m
}

func (m *Mock) derive() (address wallets.Address) {
	address = wallets.Address{
		Address: fmt.Sprintf("mock_address_%d", m.nextIndex),
		Index:   m.nextIndex,
	}
	m.addresses[m.nextIndex] = address
	m.nextIndex++
	return address
}

// FailSync makes every following Sync return err. nil restores it
func (m *Mock) FailSync(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncErr = err
}

func (m *Mock) Sync(ctx context.Context, _ bool) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncErr
}

// NewAddress derives a new mock address.
func (m *Mock) NewAddress(ctx context.Context, req wallets.NewAddressRequest) (address wallets.Address, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.derive(), nil
}

// Address returns the balance of the specified address.
func (m *Mock) Address(ctx context.Context, req wallets.AddressRequest) (address wallets.Address, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	address, ok := m.addresses[req.Index]
	if !ok {
		return address, fmt.Errorf("%w: %d", ErrAddressNotFound, req.Index)
	}
	return address, nil
}

// Deposit simulates an incoming transaction that has not been confirmed yet
func (m *Mock) Deposit(index, amount uint64) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == 0 {
		return ErrInvalidAmount
	}

	address, ok := m.addresses[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrAddressNotFound, index)
	}
	address.Balance += amount
	m.addresses[index] = address
	return nil
}

// Confirm unlocks every pending deposit of the address
func (m *Mock) Confirm(index uint64) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	address, ok := m.addresses[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrAddressNotFound, index)
	}
	address.UnlockedBalance = address.Balance
	m.addresses[index] = address
	return nil
}
