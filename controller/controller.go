package controller

import (
	"context"
	"log/slog"

	"anarchy.ttfm/straight/gateway"
	"anarchy.ttfm/straight/metrics"
	"anarchy.ttfm/straight/orders"
	"anarchy.ttfm/straight/throttle"
	"anarchy.ttfm/straight/utils"
	"github.com/prometheus/client_golang/prometheus"
)

type (
	// Gateway is the merchant endpoint a request was addressed to
	Gateway interface {
		Id() (id uint64)
		CheckSignature() (check bool)
		CompletedAbove() (status orders.Status)
		CreateOrder(ctx context.Context, payload orders.Payload) (order orders.Order, err error)
		ReloadStatus(ctx context.Context, order *orders.Order) (err error)
		AddSubscriberForOrder(s gateway.Subscriber, order orders.Order) (err error)
		StartPeriodicStatusCheck(ctx context.Context, order orders.Order) (err error)
	}
	// Gateways resolves a gateway from the hashed id found in URLs
	Gateways interface {
		FindByHashedID(hashedId string) (gw Gateway, found bool)
	}
	OrderStore interface {
		Find(ctx context.Context, ref orders.Ref) (order orders.Order, err error)
		Save(ctx context.Context, order *orders.Order) (err error)
	}
)

type registry struct {
	*gateway.Registry
}

func (r registry) FindByHashedID(hashedId string) (gw Gateway, found bool) {
	g, found := r.Registry.FindByHashedID(hashedId)
	if !found {
		return nil, false
	}
	return g, true
}

// FromRegistry exposes a gateway registry as Gateways
func FromRegistry(r *gateway.Registry) (gateways Gateways) {
	return registry{Registry: r}
}

type Controller struct {
	gateways  Gateways
	orders    OrderStore
	throttler throttle.Throttler
	logger    *slog.Logger
	metrics   *metrics.Metrics
	spawn     gateway.Spawner
	ctx       context.Context
}

type Config struct {
	Gateways Gateways
	Orders   OrderStore
	// Consulted for gateways that do not check signatures. nil lets everything through
	Throttler throttle.Throttler
	Logger    *slog.Logger
	// Optional. A private registry is used when nil
	Metrics *metrics.Metrics
	// Starts the status check of new orders. Defaults to utils.Go
	Spawn gateway.Spawner
	// Parent of the status checks. Defaults to context.Background
	Context context.Context
}

func New(config Config) (ctrl *Controller) {
	ctrl = &Controller{
		gateways:  config.Gateways,
		orders:    config.Orders,
		throttler: config.Throttler,
		logger:    config.Logger,
		metrics:   config.Metrics,
		spawn:     config.Spawn,
		ctx:       config.Context,
	}
	if ctrl.logger == nil {
		ctrl.logger = slog.Default()
	}
	if ctrl.metrics == nil {
		ctrl.metrics = metrics.New(prometheus.NewRegistry())
	}
	if ctrl.spawn == nil {
		ctrl.spawn = func(name string, task func() error) {
			utils.Go(ctrl.logger, name, task)
		}
	}
	if ctrl.ctx == nil {
		ctrl.ctx = context.Background()
	}
	return ctrl
}
