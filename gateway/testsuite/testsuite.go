package testsuite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	_ "embed"

	"anarchy.ttfm/straight/gateway"
	"anarchy.ttfm/straight/orders"
	"anarchy.ttfm/straight/wallets"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

// Funder moves money into wallet addresses.
type Funder interface {
	// Deposit sends amount to the address at index without confirming it
	Deposit(index, amount uint64) (err error)
	// Confirm unlocks every deposit of the address at index
	Confirm(index uint64) (err error)
}

// Recorder is a Subscriber keeping every notification
type Recorder struct {
	mu       sync.Mutex
	notified []orders.Order
	closed   bool
	done     chan struct{}
	leave    sync.Once
}

var _ gateway.Subscriber = (*Recorder)(nil)

func NewRecorder() (r *Recorder) {
	return &Recorder{done: make(chan struct{})}
}

func (r *Recorder) Notify(order orders.Order) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, order)
	return nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

// Leave simulates the client going away
func (r *Recorder) Leave() {
	r.leave.Do(func() { close(r.done) })
}

func (r *Recorder) Notified() (notified []orders.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]orders.Order(nil), r.notified...)
}

func (r *Recorder) Closed() (closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Engine builds an engine over an in memory database
func Engine(t *testing.T, wallet wallets.Wallet) (engine *gateway.Engine, store *orders.Store) {
	options := badger.
		DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	db, err := badger.Open(options)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err = orders.NewStore(db, nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine = gateway.NewEngine(gateway.EngineConfig{
		Store:          store,
		Wallet:         wallet,
		CheckInterval:  10 * time.Millisecond,
		CompletedAbove: gateway.DefaultCompletedAbove,
	})
	return engine, store
}

// Open builds a single gateway over an in memory database
func Open(t *testing.T, wallet wallets.Wallet, config gateway.Config) (g *gateway.Gateway, store *orders.Store) {
	engine, store := Engine(t, wallet)

	g, err := gateway.New(engine, config)
	if err != nil {
		t.Fatalf("failed to create gateway: %v", err)
	}
	return g, store
}

//go:embed tests/lifecycle.yaml
var lifecycleTests []byte

// Test drives orders from creation to their final status against any wallet
func Test(t *testing.T, wallet wallets.Wallet, funder Funder) {
	type Test struct {
		Name         string        `yaml:"name"`
		Amount       string        `yaml:"amount"`
		Denomination string        `yaml:"denomination"`
		Deposits     []uint64      `yaml:"deposits"`
		Confirm      bool          `yaml:"confirm"`
		Expiration   time.Duration `yaml:"expiration"`
		Expect       orders.Status `yaml:"expect"`
	}

	var tests []Test
	err := yaml.Unmarshal(lifecycleTests, &tests)
	if err != nil {
		t.Fatalf("failed to load tests: %v", err)
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()
			assertions := assert.New(t)

			g, store := Open(t, wallet, gateway.Config{
				Id:              1,
				Active:          true,
				OrderExpiration: test.Expiration,
			})

			ctx, cancel := context.WithTimeout(context.TODO(), 2*time.Second)
			defer cancel()

			order, err := g.CreateOrder(ctx, orders.Payload{
				Amount:          test.Amount,
				BtcDenomination: test.Denomination,
			})
			if !assertions.Nil(err, "failed to create order") {
				return
			}
			assertions.Equal(orders.StatusNew, order.Status)

			recorder := NewRecorder()
			err = g.AddSubscriberForOrder(recorder, order)
			assertions.Nil(err, "failed to subscribe")

			for _, amount := range test.Deposits {
				err = funder.Deposit(order.KeychainId, amount)
				assertions.Nil(err, "failed to deposit")
			}
			if test.Confirm {
				err = funder.Confirm(order.KeychainId)
				assertions.Nil(err, "failed to confirm")
			}

			if !test.Expect.Terminal() {
				// Never settles, give it a few rounds
				short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
				defer cancel()
				ctx = short
			}

			err = g.StartPeriodicStatusCheck(ctx, order)
			if test.Expect.Terminal() {
				assertions.Nil(err, "status check must end by itself")
			} else {
				assertions.True(errors.Is(err, context.DeadlineExceeded), "status check must keep going")
			}

			stored, err := store.Find(context.TODO(), orders.NumericRef(order.Id))
			assertions.Nil(err, "failed to find order")
			assertions.Equal(test.Expect, stored.Status, "invalid status")

			notified := recorder.Notified()
			if assertions.NotEmpty(notified, "subscriber never notified") {
				assertions.Equal(test.Expect, notified[len(notified)-1].Status)
			}
			assertions.Equal(test.Expect.Terminal(), recorder.Closed())
		})
	}
}
