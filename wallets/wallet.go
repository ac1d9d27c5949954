package wallets

import (
	"context"
	"encoding/json"
)

type (
	AddressRequest struct {
		// Keychain index of the address
		Index uint64
	}
	NewAddressRequest struct {
		// Label for the new address
		Label string
	}
	Address struct {
		// Encoded address to pay to
		Address string
		// Keychain index of the address
		Index uint64
		// Total balance received, confirmed or not
		Balance uint64
		// Balance with enough confirmations to be spent
		UnlockedBalance uint64
	}
)

// Wallet derives payment addresses and reports what they received.
// Orders never move funds, so the interface is read-mostly.
type Wallet interface {
	// Sync the wallet with the chain. full rescans from the first block
	Sync(ctx context.Context, full bool) (err error)

	// Derive the next unused address
	NewAddress(ctx context.Context, req NewAddressRequest) (address Address, err error)

	// Address at a keychain index with its balances
	Address(ctx context.Context, req AddressRequest) (address Address, err error)
}

// Unconfirmed is the part of the balance still waiting for confirmations
func (a *Address) Unconfirmed() (amount uint64) {
	if a.Balance < a.UnlockedBalance {
		return 0
	}
	return a.Balance - a.UnlockedBalance
}

func (a *Address) String() (s string) {
	contents, _ := json.Marshal(a)
	return string(contents)
}
