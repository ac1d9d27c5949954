package controller

import (
	"context"
	"net/http"
)

// show re-derives the status of the order and saves it when it moved
func (c *Controller) show(ctx context.Context, cl *call) (res *Response) {
	order, res := c.lookup(ctx, cl)
	if order == nil {
		return res
	}

	err := cl.gw.ReloadStatus(ctx, order)
	if err != nil {
		cl.logger.Warn("failed to reload order status", "order", order.Id, "error", err)
		return JSON(http.StatusOK, order)
	}

	if order.StatusChanged() {
		err = c.orders.Save(ctx, order)
		if err != nil {
			cl.logger.Error("failed to save order", "order", order.Id, "error", err)
		}
	}
	return JSON(http.StatusOK, order)
}
