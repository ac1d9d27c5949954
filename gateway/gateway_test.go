package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"anarchy.ttfm/straight/gateway"
	"anarchy.ttfm/straight/gateway/testsuite"
	"anarchy.ttfm/straight/orders"
	"anarchy.ttfm/straight/wallets"
	"anarchy.ttfm/straight/wallets/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Lifecycle(t *testing.T) {
	w := mock.New(mock.Config{})
	testsuite.Test(t, w, w)
}

func Test_HashedId(t *testing.T) {
	assertions := assert.New(t)

	assertions.Equal("6b86b273ff34fce19d6b804eff5a3f5747ada4eaa22f1d49c01e52ddb7875b4b", gateway.HashedId(1))
	assertions.NotEqual(gateway.HashedId(1), gateway.HashedId(2))
}

func Test_Config(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		assertions := assert.New(t)

		config, err := gateway.Config{Id: 1}.Normalize()
		assertions.Nil(err)
		assertions.Equal([]string{"BTC"}, config.Currencies)
		assertions.Equal("BTC", config.DefaultCurrency)
		assertions.Equal(gateway.DefaultOrderExpiration, config.OrderExpiration)
	})
	t.Run("Invalid", func(t *testing.T) {
		assertions := assert.New(t)

		invalid := []gateway.Config{
			{},
			{Id: 1, CheckSignature: true},
			{Id: 1, Currencies: []string{"btc"}, DefaultCurrency: "ltc"},
			{Id: 1, OrderExpiration: -time.Second},
			{Id: 1, CallbackURL: "ftp://merchant"},
		}
		for _, config := range invalid {
			_, err := config.Normalize()
			assertions.ErrorIs(err, gateway.ErrInvalidConfig, "%+v", config)
		}
	})
}

func Test_CreateOrder(t *testing.T) {
	const secret = "merchant secret"

	t.Run("Inactive", func(t *testing.T) {
		assertions := assert.New(t)

		g, _ := testsuite.Open(t, mock.New(mock.Config{}), gateway.Config{Id: 1})
		_, err := g.CreateOrder(context.TODO(), orders.Payload{Amount: "100000"})
		assertions.ErrorIs(err, gateway.ErrGatewayInactive)
	})
	t.Run("Validation", func(t *testing.T) {
		assertions := assert.New(t)

		g, _ := testsuite.Open(t, mock.New(mock.Config{}), gateway.Config{Id: 1, Active: true})
		_, err := g.CreateOrder(context.TODO(), orders.Payload{
			Amount:          "-1",
			Currency:        "USD",
			BtcDenomination: "nope",
			KeychainId:      "x",
		})

		var invalid *orders.ValidationError
		if assertions.True(errors.As(err, &invalid)) {
			assertions.Len(invalid.Failures, 4, invalid.Enumerate())
		}

		_, err = g.CreateOrder(context.TODO(), orders.Payload{})
		assertions.True(errors.As(err, &invalid))
		_, err = g.CreateOrder(context.TODO(), orders.Payload{Amount: "0.000000001", BtcDenomination: "btc"})
		assertions.True(errors.As(err, &invalid), "fractions of a satoshi")
	})
	t.Run("Unsigned", func(t *testing.T) {
		assertions := assert.New(t)

		g, store := testsuite.Open(t, mock.New(mock.Config{}), gateway.Config{Id: 1, Active: true})
		callbackData := "cb"
		order, err := g.CreateOrder(context.TODO(), orders.Payload{
			Amount:       "100000",
			Currency:     "btc",
			CallbackData: &callbackData,
			Data:         []byte(`"foo"`),
		})
		assertions.Nil(err)
		assertions.NotZero(order.Id)
		assertions.NotEmpty(order.PaymentId)
		assertions.Equal(uint64(1), order.GatewayId)
		assertions.Equal(uint64(100000), order.Amount)
		assertions.Equal("BTC", order.Currency)
		assertions.Equal(orders.DenominationSatoshi, order.BtcDenomination)
		assertions.Equal("mock_address_0", order.Address)
		assertions.Equal(orders.StatusNew, order.Status)
		assertions.True(order.ExpiresAt.After(order.CreatedAt))

		stored, err := store.Find(context.TODO(), orders.PaymentRef(order.PaymentId))
		assertions.Nil(err)
		assertions.Equal(order.Id, stored.Id)
		assertions.Equal("cb", *stored.CallbackData)
		assertions.JSONEq(`"foo"`, string(stored.Data))
	})
	t.Run("Signed", func(t *testing.T) {
		assertions := assert.New(t)

		g, _ := testsuite.Open(t, mock.New(mock.Config{Preallocate: 10}), gateway.Config{
			Id:             1,
			Active:         true,
			CheckSignature: true,
			Secret:         secret,
		})
		ctx := context.TODO()

		_, err := g.CreateOrder(ctx, orders.Payload{Amount: "100000"})
		assertions.ErrorIs(err, gateway.ErrInvalidOrderId, "missing keychain_id")
		_, err = g.CreateOrder(ctx, orders.Payload{Amount: "100000", KeychainId: "0", Signature: gateway.Sign(secret, 0)})
		assertions.ErrorIs(err, gateway.ErrInvalidOrderId, "zero keychain_id")
		_, err = g.CreateOrder(ctx, orders.Payload{Amount: "100000", KeychainId: "5", Signature: gateway.Sign("other", 5)})
		assertions.ErrorIs(err, gateway.ErrInvalidSignature)
		_, err = g.CreateOrder(ctx, orders.Payload{Amount: "100000", KeychainId: "5", Signature: "not hex"})
		assertions.ErrorIs(err, gateway.ErrInvalidSignature)

		order, err := g.CreateOrder(ctx, orders.Payload{Amount: "100000", KeychainId: "5", Signature: gateway.Sign(secret, 5)})
		assertions.Nil(err)
		assertions.Equal(uint64(5), order.KeychainId)
		assertions.Equal("mock_address_5", order.Address)
	})
	t.Run("Unknown address", func(t *testing.T) {
		assertions := assert.New(t)

		g, _ := testsuite.Open(t, mock.New(mock.Config{}), gateway.Config{Id: 1, Active: true})
		_, err := g.CreateOrder(context.TODO(), orders.Payload{Amount: "100000", KeychainId: "7"})
		assertions.ErrorIs(err, mock.ErrAddressNotFound)
	})
}

func Test_DeriveStatus(t *testing.T) {
	assertions := assert.New(t)

	type Test struct {
		Balance  uint64
		Unlocked uint64
		Expired  bool
		Expect   orders.Status
	}
	tests := []Test{
		{Balance: 0, Unlocked: 0, Expect: orders.StatusNew},
		{Balance: 0, Unlocked: 0, Expired: true, Expect: orders.StatusExpired},
		{Balance: 100, Unlocked: 0, Expect: orders.StatusUnconfirmed},
		{Balance: 100, Unlocked: 0, Expired: true, Expect: orders.StatusUnconfirmed},
		{Balance: 100, Unlocked: 100, Expect: orders.StatusPaid},
		{Balance: 50, Unlocked: 50, Expect: orders.StatusUnderpaid},
		{Balance: 150, Unlocked: 150, Expired: true, Expect: orders.StatusOverpaid},
	}
	for _, test := range tests {
		status := gateway.DeriveStatus(100, wallets.Address{Balance: test.Balance, UnlockedBalance: test.Unlocked}, test.Expired)
		assertions.Equal(test.Expect, status, "%+v", test)
	}
}

func Test_ReloadStatus(t *testing.T) {
	t.Run("Terminal", func(t *testing.T) {
		assertions := assert.New(t)

		w := mock.New(mock.Config{})
		g, _ := testsuite.Open(t, w, gateway.Config{Id: 1, Active: true})
		w.FailSync(errors.New("offline"))

		order := orders.Order{Id: 1, Status: orders.StatusPaid}
		order.MarkPersisted()
		err := g.ReloadStatus(context.TODO(), &order)
		assertions.Nil(err)
		assertions.Equal(orders.StatusPaid, order.Status)
		assertions.False(order.StatusChanged())
	})
	t.Run("Sync failure", func(t *testing.T) {
		assertions := assert.New(t)

		w := mock.New(mock.Config{})
		g, _ := testsuite.Open(t, w, gateway.Config{Id: 1, Active: true})
		order, err := g.CreateOrder(context.TODO(), orders.Payload{Amount: "1"})
		require.Nil(t, err)

		offline := errors.New("offline")
		w.FailSync(offline)
		err = g.ReloadStatus(context.TODO(), &order)
		assertions.ErrorIs(err, offline)
		assertions.False(order.StatusChanged())
	})
	t.Run("Address mismatch", func(t *testing.T) {
		assertions := assert.New(t)

		g, _ := testsuite.Open(t, mock.New(mock.Config{Preallocate: 1}), gateway.Config{Id: 1, Active: true})
		order := orders.Order{Id: 1, KeychainId: 0, Address: "somewhere else"}
		err := g.ReloadStatus(context.TODO(), &order)
		assertions.ErrorIs(err, gateway.ErrAddressMismatch)
	})
	t.Run("Changed", func(t *testing.T) {
		assertions := assert.New(t)

		w := mock.New(mock.Config{})
		g, _ := testsuite.Open(t, w, gateway.Config{Id: 1, Active: true})
		order, err := g.CreateOrder(context.TODO(), orders.Payload{Amount: "10"})
		require.Nil(t, err)

		err = g.ReloadStatus(context.TODO(), &order)
		assertions.Nil(err)
		assertions.False(order.StatusChanged())

		assertions.Nil(w.Deposit(order.KeychainId, 10))
		assertions.Nil(w.Confirm(order.KeychainId))
		err = g.ReloadStatus(context.TODO(), &order)
		assertions.Nil(err)
		assertions.True(order.StatusChanged())
		assertions.Equal(orders.StatusPaid, order.Status)
		assertions.Equal(uint64(10), order.AmountPaid)
	})
}

func Test_Subscribers(t *testing.T) {
	t.Run("Exclusive", func(t *testing.T) {
		assertions := assert.New(t)

		engine, _ := testsuite.Engine(t, mock.New(mock.Config{}))
		g, err := gateway.New(engine, gateway.Config{Id: 1, Active: true})
		require.Nil(t, err)

		order := orders.Order{Id: 42, Status: orders.StatusNew}

		var succeeded, rejected atomic.Int64
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := g.AddSubscriberForOrder(testsuite.NewRecorder(), order)
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, gateway.ErrAlreadySubscribed):
					rejected.Add(1)
				}
			}()
		}
		wg.Wait()

		assertions.Equal(int64(1), succeeded.Load())
		assertions.Equal(int64(49), rejected.Load())
		assertions.Equal(1, engine.Listeners().Len())
	})
	t.Run("Completed", func(t *testing.T) {
		assertions := assert.New(t)

		engine, _ := testsuite.Engine(t, mock.New(mock.Config{}))
		g, err := gateway.New(engine, gateway.Config{Id: 1, Active: true})
		require.Nil(t, err)

		for _, status := range []orders.Status{orders.StatusPaid, orders.StatusExpired, orders.StatusCanceled} {
			err = g.AddSubscriberForOrder(testsuite.NewRecorder(), orders.Order{Id: 1, Status: status})
			assertions.ErrorIs(err, gateway.ErrOrderCompleted)
		}
		err = g.AddSubscriberForOrder(testsuite.NewRecorder(), orders.Order{Id: 1, Status: orders.StatusUnconfirmed})
		assertions.Nil(err)
		assertions.Equal(gateway.DefaultCompletedAbove, g.CompletedAbove())
	})
	t.Run("Leave", func(t *testing.T) {
		assertions := assert.New(t)

		engine, _ := testsuite.Engine(t, mock.New(mock.Config{}))
		g, err := gateway.New(engine, gateway.Config{Id: 1, Active: true})
		require.Nil(t, err)

		order := orders.Order{Id: 7}
		first := testsuite.NewRecorder()
		assertions.Nil(g.AddSubscriberForOrder(first, order))

		first.Leave()
		assertions.Eventually(func() bool { return engine.Listeners().Len() == 0 }, time.Second, 5*time.Millisecond)

		second := testsuite.NewRecorder()
		assertions.Nil(g.AddSubscriberForOrder(second, order), "slot must be free again")
	})
	t.Run("Terminal notification", func(t *testing.T) {
		assertions := assert.New(t)

		engine, _ := testsuite.Engine(t, mock.New(mock.Config{}))
		listeners := engine.Listeners()

		recorder := testsuite.NewRecorder()
		assertions.Nil(listeners.Add(3, recorder))

		listeners.Notify(orders.Order{Id: 3, Status: orders.StatusUnconfirmed})
		assertions.False(recorder.Closed())
		assertions.Equal(1, listeners.Len())

		listeners.Notify(orders.Order{Id: 3, Status: orders.StatusPaid})
		assertions.True(recorder.Closed())
		assertions.Equal(0, listeners.Len())
		assertions.Len(recorder.Notified(), 2)

		// Nobody listens anymore
		listeners.Notify(orders.Order{Id: 3, Status: orders.StatusPaid})
		assertions.Len(recorder.Notified(), 2)
	})
}

func Test_Callback(t *testing.T) {
	assertions := assert.New(t)

	received := make(chan url.Values, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.URL.Query()
	}))
	defer server.Close()

	w := mock.New(mock.Config{})
	g, _ := testsuite.Open(t, w, gateway.Config{
		Id:          1,
		Active:      true,
		CallbackURL: server.URL + "/callback?merchant=1",
	})

	callbackData := "invoice-9"
	order, err := g.CreateOrder(context.TODO(), orders.Payload{Amount: "500", CallbackData: &callbackData})
	require.Nil(t, err)
	assertions.Nil(w.Deposit(order.KeychainId, 500))
	assertions.Nil(w.Confirm(order.KeychainId))

	ctx, cancel := context.WithTimeout(context.TODO(), 2*time.Second)
	defer cancel()
	err = g.StartPeriodicStatusCheck(ctx, order)
	assertions.Nil(err)

	select {
	case query := <-received:
		assertions.Equal("1", query.Get("merchant"))
		assertions.Equal(strconv.FormatUint(order.Id, 10), query.Get("order_id"))
		assertions.Equal("500", query.Get("amount"))
		assertions.Equal(strconv.Itoa(int(orders.StatusPaid)), query.Get("status"))
		assertions.Equal(order.Address, query.Get("address"))
		assertions.Equal(strconv.FormatUint(order.KeychainId, 10), query.Get("keychain_id"))
		assertions.Equal("invoice-9", query.Get("callback_data"))
	case <-time.After(2 * time.Second):
		t.Fatal("callback never received")
	}
}

func Test_Registry(t *testing.T) {
	t.Run("Lookup", func(t *testing.T) {
		assertions := assert.New(t)

		engine, _ := testsuite.Engine(t, mock.New(mock.Config{}))
		g1, err := gateway.New(engine, gateway.Config{Id: 1})
		require.Nil(t, err)
		g2, err := gateway.New(engine, gateway.Config{Id: 2})
		require.Nil(t, err)

		registry, err := gateway.NewRegistry(engine, g1, g2)
		require.Nil(t, err)

		found, ok := registry.FindByHashedID(gateway.HashedId(2))
		assertions.True(ok)
		assertions.Equal(uint64(2), found.Id())
		_, ok = registry.FindByHashedID("2")
		assertions.False(ok, "raw ids are not hashed ids")
		assertions.Len(registry.All(), 2)

		_, err = gateway.NewRegistry(engine, g1, g1)
		assertions.ErrorIs(err, gateway.ErrInvalidConfig)
	})
	t.Run("ResumeTracking", func(t *testing.T) {
		assertions := assert.New(t)

		w := mock.New(mock.Config{})
		engine, store := testsuite.Engine(t, w)
		g, err := gateway.New(engine, gateway.Config{Id: 1, Active: true})
		require.Nil(t, err)
		registry, err := gateway.NewRegistry(engine, g)
		require.Nil(t, err)

		ctx := context.TODO()
		settled, err := g.CreateOrder(ctx, orders.Payload{Amount: "10"})
		require.Nil(t, err)
		waiting, err := g.CreateOrder(ctx, orders.Payload{Amount: "10"})
		require.Nil(t, err)

		// Paid while nobody was watching
		assertions.Nil(w.Deposit(settled.KeychainId, 10))
		assertions.Nil(w.Confirm(settled.KeychainId))

		var mu sync.Mutex
		var spawned []string
		err = registry.ResumeTracking(ctx, func(name string, task func() error) {
			mu.Lock()
			defer mu.Unlock()
			spawned = append(spawned, name)
		})
		assertions.Nil(err)
		assertions.Equal([]string{"status check order " + strconv.FormatUint(waiting.Id, 10)}, spawned)

		stored, err := store.Find(ctx, orders.NumericRef(settled.Id))
		assertions.Nil(err)
		assertions.Equal(orders.StatusPaid, stored.Status)
	})
}
