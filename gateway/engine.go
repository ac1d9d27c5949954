package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"anarchy.ttfm/straight/metrics"
	"anarchy.ttfm/straight/orders"
	"anarchy.ttfm/straight/wallets"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultCheckInterval   = 10 * time.Second
	DefaultCallbackTimeout = 10 * time.Second
	DefaultCompletedAbove  = orders.StatusUnconfirmed
)

// Engine holds what every gateway shares: storage, wallet and observers
type Engine struct {
	store          *orders.Store
	wallet         wallets.Wallet
	listeners      *Listeners
	metrics        *metrics.Metrics
	logger         *slog.Logger
	checkInterval  time.Duration
	completedAbove orders.Status
	client         *http.Client
	now            func() time.Time
}

type EngineConfig struct {
	Store  *orders.Store
	Wallet wallets.Wallet
	Logger *slog.Logger
	// Optional. A private registry is used when nil
	Metrics *metrics.Metrics
	// Time between two status checks of a pending order
	CheckInterval time.Duration
	// Orders with a status above this one are completed and cannot be
	// observed. The zero value is StatusNew, see DefaultCompletedAbove
	CompletedAbove orders.Status
	// Used for merchant callbacks
	Client *http.Client
	// Optional clock
	Now func() time.Time
}

func NewEngine(config EngineConfig) (e *Engine) {
	e = &Engine{
		store:          config.Store,
		wallet:         config.Wallet,
		metrics:        config.Metrics,
		logger:         config.Logger,
		checkInterval:  config.CheckInterval,
		completedAbove: config.CompletedAbove,
		client:         config.Client,
		now:            config.Now,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = metrics.New(prometheus.NewRegistry())
	}
	if e.checkInterval <= 0 {
		e.checkInterval = DefaultCheckInterval
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: DefaultCallbackTimeout}
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.listeners = NewListeners(e.logger, e.metrics.ActiveSubscriptions)
	return e
}

func (e *Engine) Listeners() (l *Listeners) {
	return e.listeners
}
