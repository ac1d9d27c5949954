package gateway

import (
	"errors"
	"log/slog"
	"sync"

	"anarchy.ttfm/straight/orders"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrAlreadySubscribed = errors.New("someone is already listening to that order")
	ErrOrderCompleted    = errors.New("order is completed")
)

// Subscriber receives the status updates of one order.
// Implementations must be comparable, pointers are
type Subscriber interface {
	// Notify queues order for delivery. Must not block
	Notify(order orders.Order) (err error)
	// Close is called once after the last notification
	Close()
	// Done is closed when the subscriber goes away on its own
	Done() <-chan struct{}
}

// Listeners allows a single subscriber per order
type Listeners struct {
	logger *slog.Logger
	active prometheus.Gauge

	mu          sync.Mutex
	subscribers map[uint64]Subscriber
}

func NewListeners(logger *slog.Logger, active prometheus.Gauge) (l *Listeners) {
	return &Listeners{
		logger:      logger,
		active:      active,
		subscribers: make(map[uint64]Subscriber),
	}
}

// Add registers s for orderId unless someone else already listens
func (l *Listeners) Add(orderId uint64, s Subscriber) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, found := l.subscribers[orderId]; found {
		return ErrAlreadySubscribed
	}
	l.subscribers[orderId] = s
	l.active.Inc()

	go func() {
		<-s.Done()
		l.remove(orderId, s)
	}()
	return nil
}

func (l *Listeners) remove(orderId uint64, s Subscriber) (removed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, found := l.subscribers[orderId]
	if !found || current != s {
		return false
	}
	delete(l.subscribers, orderId)
	l.active.Dec()
	return true
}

// Notify pushes order to its subscriber, if any.
// Terminal orders close and release the subscriber
func (l *Listeners) Notify(order orders.Order) {
	l.mu.Lock()
	s, found := l.subscribers[order.Id]
	if found && order.Status.Terminal() {
		delete(l.subscribers, order.Id)
		l.active.Dec()
	}
	l.mu.Unlock()

	if !found {
		return
	}

	err := s.Notify(order)
	if err != nil {
		l.logger.Warn("failed to notify subscriber", "order", order.Id, "error", err)
	}
	if order.Status.Terminal() {
		s.Close()
	}
}

// Len is the number of orders being observed
func (l *Listeners) Len() (n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subscribers)
}

// AddSubscriberForOrder makes s the only observer of order.
// Completed orders cannot be observed
func (g *Gateway) AddSubscriberForOrder(s Subscriber, order orders.Order) (err error) {
	if order.Status.CompletedAbove(g.engine.completedAbove) {
		return ErrOrderCompleted
	}
	return g.engine.listeners.Add(order.Id, s)
}
