package gateway

import (
	"context"
	"fmt"
	"time"

	"anarchy.ttfm/straight/orders"
)

// Spawner starts task without waiting for it. Failures stay inside the task
type Spawner func(name string, task func() error)

// StartPeriodicStatusCheck reloads the order status every check interval
// until the order is terminal. Every change is saved, pushed to the order
// subscriber and reported to the merchant callback
func (g *Gateway) StartPeriodicStatusCheck(ctx context.Context, order orders.Order) (err error) {
	g.engine.metrics.DetachedTasks.Inc()
	defer g.engine.metrics.DetachedTasks.Dec()

	ticker := time.NewTicker(g.engine.checkInterval)
	defer ticker.Stop()

	for !order.Status.Terminal() || order.StatusChanged() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("stopped checking order %d: %w", order.Id, ctx.Err())
		case <-ticker.C:
		}

		_, err = g.checkStatus(ctx, &order)
		if err != nil {
			g.logger.Warn("failed to check order status", "order", order.Id, "error", err)
		}
	}
	g.logger.Debug("order settled", "order", order.Id, "status", order.Status)
	return nil
}

// checkStatus reloads the order and propagates a change
func (g *Gateway) checkStatus(ctx context.Context, order *orders.Order) (changed bool, err error) {
	err = g.ReloadStatus(ctx, order)
	if err != nil {
		return false, fmt.Errorf("failed to reload status: %w", err)
	}
	if !order.StatusChanged() {
		return false, nil
	}

	err = g.engine.store.Save(ctx, order)
	if err != nil {
		return false, fmt.Errorf("failed to save order: %w", err)
	}

	g.logger.Info("order status changed", "order", order.Id, "status", order.Status)
	g.engine.metrics.StatusChanges.WithLabelValues(order.Status.String()).Inc()
	g.engine.listeners.Notify(*order)
	g.callback(*order)
	return true, nil
}
