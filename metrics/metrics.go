package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the collectors of the gateway. Build one per process with New
type Metrics struct {
	OrdersCreated       *prometheus.CounterVec
	OrderCreateRejected *prometheus.CounterVec
	ThrottleDenied      prometheus.Counter
	StatusChanges       *prometheus.CounterVec
	ActiveSubscriptions prometheus.Gauge
	DetachedTasks       prometheus.Gauge
	CallbackFailures    prometheus.Counter
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec
}

// New creates and registers every collector in registerer
func New(registerer prometheus.Registerer) (m *Metrics) {
	m = &Metrics{
		OrdersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Total number of orders created",
			},
			[]string{"gateway"},
		),
		OrderCreateRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_create_rejected_total",
				Help: "Order creation requests rejected, by reason",
			},
			[]string{"reason"},
		),
		ThrottleDenied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "order_create_throttled_total",
				Help: "Unsigned order creation requests denied by the throttle",
			},
		),
		StatusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_status_changes_total",
				Help: "Order status transitions, by new status",
			},
			[]string{"status"},
		),
		ActiveSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "order_subscriptions_active",
				Help: "Orders currently observed over a websocket",
			},
		),
		DetachedTasks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "order_status_checks_running",
				Help: "Periodic status checks currently running",
			},
		),
		CallbackFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "order_callback_failures_total",
				Help: "Merchant callbacks that could not be delivered",
			},
		),
		HttpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		HttpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
	}

	registerer.MustRegister(
		m.OrdersCreated,
		m.OrderCreateRejected,
		m.ThrottleDenied,
		m.StatusChanges,
		m.ActiveSubscriptions,
		m.DetachedTasks,
		m.CallbackFailures,
		m.HttpRequestsTotal,
		m.HttpRequestDuration,
	)
	return m
}
