package testsuite

import (
	"testing"
	"time"

	"anarchy.ttfm/straight/random"
	"anarchy.ttfm/straight/utils"
	"anarchy.ttfm/straight/wallets"
	"github.com/stretchr/testify/assert"
)

// Test runs the behaviour every Wallet implementation must share.
// The wallet must already own the address at index 0.
func Test(t *testing.T, w wallets.Wallet) {
	t.Run("Initial Address 0 State", func(t *testing.T) {
		assertions := assert.New(t)

		ctx, cancel := utils.NewContextWithTimeout(time.Hour)
		defer cancel()

		err := w.Sync(ctx, false)
		assertions.Nil(err, "failed to sync")

		address0, err := w.Address(ctx, wallets.AddressRequest{Index: 0})
		assertions.Nil(err, "failed to retrieve initial address 0")
		assertions.Equal(uint64(0), address0.Index, "Address 0 should have index 0")
		assertions.NotEmpty(address0.Address, "Address 0 should be encoded")

		t.Logf("Initial Address 0: %+v", address0)
	})

	t.Run("NewAddress", func(t *testing.T) {
		assertions := assert.New(t)

		ctx, cancel := utils.NewContextWithTimeout(time.Hour)
		defer cancel()

		label := random.String(random.PseudoRand, random.CharsetAlphaNumeric, 10)
		address, err := w.NewAddress(ctx, wallets.NewAddressRequest{Label: label})
		assertions.Nil(err, "failed to create new address")
		assertions.NotEmpty(address.Address, "new address should have an address")
		assertions.Greater(address.Index, uint64(0), "new address index should be greater than 0")
		assertions.Equal(uint64(0), address.Balance, "new address should have zero balance initially")
		assertions.Equal(uint64(0), address.UnlockedBalance, "new address should have zero unlocked balance initially")

		retrieved, err := w.Address(ctx, wallets.AddressRequest{Index: address.Index})
		assertions.Nil(err, "failed to get newly created address")
		assertions.Equal(address, retrieved, "retrieved address should match created address")

		label2 := random.String(random.PseudoRand, random.CharsetAlphaNumeric, 10)
		address2, err := w.NewAddress(ctx, wallets.NewAddressRequest{Label: label2})
		assertions.Nil(err, "failed to create second new address")
		assertions.Less(address.Index, address2.Index, "second address index should be incremented")
		assertions.NotEqual(address.Address, address2.Address, "addresses must not repeat")
	})
}
