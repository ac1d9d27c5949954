package gateway

import (
	"context"
	"fmt"

	"anarchy.ttfm/straight/orders"
	"anarchy.ttfm/straight/wallets"
)

// DeriveStatus maps what an address received to an order status
func DeriveStatus(amount uint64, address wallets.Address, expired bool) (status orders.Status) {
	switch {
	case address.Balance > address.UnlockedBalance:
		// Money is there but not available yet
		return orders.StatusUnconfirmed
	case address.UnlockedBalance == 0:
		if expired {
			return orders.StatusExpired
		}
		return orders.StatusNew
	case address.UnlockedBalance == amount:
		return orders.StatusPaid
	case address.UnlockedBalance < amount:
		return orders.StatusUnderpaid
	default:
		return orders.StatusOverpaid
	}
}

// ReloadStatus asks the wallet what the order address received and updates
// the order in place. Terminal orders are left untouched.
// Nothing is persisted; check order.StatusChanged and save
func (g *Gateway) ReloadStatus(ctx context.Context, order *orders.Order) (err error) {
	if order.Status.Terminal() {
		return nil
	}

	err = g.engine.wallet.Sync(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to sync wallet: %w", err)
	}

	address, err := g.engine.wallet.Address(ctx, wallets.AddressRequest{Index: order.KeychainId})
	if err != nil {
		return fmt.Errorf("failed to retrieve address: %w", err)
	}
	if address.Address != order.Address {
		return fmt.Errorf("%w: %s != %s; did the server wallet change?", ErrAddressMismatch, order.Address, address.Address)
	}

	order.AmountPaid = address.UnlockedBalance
	order.Status = DeriveStatus(order.Amount, address, order.Expired(g.engine.now()))
	return nil
}
