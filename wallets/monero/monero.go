package monero

import (
	"context"
	"errors"
	"fmt"

	"anarchy.ttfm/straight/internal/walletrpc/rpc"
	"anarchy.ttfm/straight/utils"
	"anarchy.ttfm/straight/wallets"
)

type Config struct {
	// Use one account per order instead of one subaddress of account 0
	Accounts bool
	Client   *rpc.Client
}

type Wallet struct {
	accounts bool
	client   *rpc.Client
}

var ErrNoAddressFound = errors.New("no address found at index")

var _ wallets.Wallet = (*Wallet)(nil)

func (w *Wallet) Sync(ctx context.Context, full bool) (err error) {
	var height uint64
	if full {
		height = 1
	}

	_, err = w.client.Refresh(ctx, &rpc.RefreshRequest{StartHeight: height})
	if err != nil {
		return fmt.Errorf("failed to refresh wallet: %w", err)
	}
	return nil
}

func (w *Wallet) NewAddress(ctx context.Context, req wallets.NewAddressRequest) (address wallets.Address, err error) {
	if w.accounts {
		a, err := w.client.CreateAccount(ctx, &rpc.CreateAccountRequest{Label: req.Label})
		if err != nil {
			return address, fmt.Errorf("failed to create account: %w", err)
		}
		address = wallets.Address{Address: a.Address, Index: a.AccountIndex}
	} else {
		a, err := w.client.CreateAddress(ctx, &rpc.CreateAddressRequest{AccountIndex: 0, Label: req.Label})
		if err != nil {
			return address, fmt.Errorf("failed to create address: %w", err)
		}
		address = wallets.Address{Address: a.Address, Index: a.AddressIndex}
	}

	err = w.client.Store(ctx)
	if err != nil {
		return address, fmt.Errorf("failed to save changes: %w", err)
	}
	return address, nil
}

func (w *Wallet) Address(ctx context.Context, req wallets.AddressRequest) (address wallets.Address, err error) {
	if w.accounts {
		addr, err := w.client.GetAddress(ctx, &rpc.GetAddressRequest{AccountIndex: req.Index})
		if err != nil {
			return address, fmt.Errorf("failed to get account address: %w", err)
		}

		balance, err := w.client.GetBalance(ctx, &rpc.GetBalanceRequest{AccountIndex: req.Index})
		if err != nil {
			return address, fmt.Errorf("failed to get account balance: %w", err)
		}

		address = wallets.Address{
			Address:         addr.Address,
			Index:           req.Index,
			Balance:         balance.Balance,
			UnlockedBalance: balance.UnlockedBalance,
		}
		return address, nil
	}

	balance, err := w.client.GetBalance(ctx, &rpc.GetBalanceRequest{
		AccountIndex:   0,
		AddressIndices: utils.MapInt[uint64, uint32]([]uint64{req.Index}),
	})
	if err != nil {
		return address, fmt.Errorf("failed to get address balance: %w", err)
	}

	// monero-wallet-rpc omits subaddresses that never received funds
	for _, entry := range balance.PerSubaddress {
		if entry.AddressIndex != req.Index {
			continue
		}
		address = wallets.Address{
			Address:         entry.Address,
			Index:           req.Index,
			Balance:         entry.Balance,
			UnlockedBalance: entry.UnlockedBalance,
		}
		return address, nil
	}

	addr, err := w.client.GetAddress(ctx, &rpc.GetAddressRequest{
		AccountIndex: 0,
		AddressIndex: utils.MapInt[uint64, uint32]([]uint64{req.Index}),
	})
	if err != nil {
		return address, fmt.Errorf("failed to get address: %w", err)
	}
	if len(addr.Addresses) == 0 {
		return address, fmt.Errorf("%w: %d", ErrNoAddressFound, req.Index)
	}

	address = wallets.Address{Address: addr.Addresses[0].Address, Index: req.Index}
	return address, nil
}

func New(config Config) (w *Wallet) {
	w = &Wallet{
		accounts: config.Accounts,
		client:   config.Client,
	}
	return w
}
