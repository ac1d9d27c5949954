package mock_test

import (
	"context"
	"testing"

	"anarchy.ttfm/straight/wallets"
	"anarchy.ttfm/straight/wallets/mock"
	"anarchy.ttfm/straight/wallets/testsuite"
	"github.com/stretchr/testify/assert"
)

func Test_Mock(t *testing.T) {
	testsuite.Test(t, mock.New(mock.Config{Preallocate: 1}))
}

func Test_DepositConfirm(t *testing.T) {
	assertions := assert.New(t)
	ctx := context.TODO()

	w := mock.New(mock.Config{})
	address, err := w.NewAddress(ctx, wallets.NewAddressRequest{Label: "order"})
	assertions.Nil(err, "failed to create address")

	assertions.ErrorIs(w.Deposit(address.Index, 0), mock.ErrInvalidAmount)
	assertions.ErrorIs(w.Deposit(address.Index+1, 10), mock.ErrAddressNotFound)

	assertions.Nil(w.Deposit(address.Index, 1_000))
	address, err = w.Address(ctx, wallets.AddressRequest{Index: address.Index})
	assertions.Nil(err, "failed to query address")
	assertions.Equal(uint64(1_000), address.Balance)
	assertions.Equal(uint64(1_000), address.Unconfirmed())

	assertions.Nil(w.Confirm(address.Index))
	address, err = w.Address(ctx, wallets.AddressRequest{Index: address.Index})
	assertions.Nil(err, "failed to query address")
	assertions.Equal(uint64(1_000), address.UnlockedBalance)
	assertions.Equal(uint64(0), address.Unconfirmed())
}
