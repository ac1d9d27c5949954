package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"anarchy.ttfm/straight/gateway"
)

const msgAlreadySubscribed = "Someone is already listening to that order"

// websocket makes the request channel the only observer of the order.
// A 101 tells the transport to finish the upgrade
func (c *Controller) websocket(ctx context.Context, cl *call) (res *Response) {
	order, res := c.lookup(ctx, cl)
	if order == nil {
		return res
	}
	if cl.req.Channel == nil {
		return Text(http.StatusBadRequest, "Websocket upgrade required")
	}

	err := cl.gw.AddSubscriberForOrder(cl.req.Channel, *order)
	switch {
	case errors.Is(err, gateway.ErrAlreadySubscribed):
		return Text(http.StatusForbidden, msgAlreadySubscribed)
	case errors.Is(err, gateway.ErrOrderCompleted):
		return Text(http.StatusForbidden, fmt.Sprintf("You cannot listen to this order because it is completed (status > %d)", cl.gw.CompletedAbove()))
	case err != nil:
		cl.logger.Error("failed to subscribe to order", "order", order.Id, "error", err)
		return Text(http.StatusInternalServerError, msgInternalError)
	}
	return &Response{Status: http.StatusSwitchingProtocols, Header: http.Header{}}
}
