package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"anarchy.ttfm/straight/orders"
	"github.com/google/uuid"
)

type Action string

const (
	ActionCreate    Action = "create"
	ActionShow      Action = "show"
	ActionWebsocket Action = "websocket"
)

const (
	msgGatewayNotFound = "Gateway not found"
	msgInternalError   = "Internal server error"
)

// call is one request being served
type call struct {
	req    Request
	gw     Gateway
	ref    orders.Ref
	logger *slog.Logger
}

// Dispatch resolves the gateway of req and runs action on it.
// Actions yielding nothing become a 404 echoing the request
func (c *Controller) Dispatch(ctx context.Context, action Action, req Request) (res Response) {
	logger := c.logger.With("request", uuid.New().String())
	logger.Info("request", "method", req.Method, "path", req.Path, "params", req.Params)

	gw, found := c.gateways.FindByHashedID(req.GatewayID)
	if !found {
		logger.Warn(msgGatewayNotFound, "gateway", req.GatewayID)
		return *Text(http.StatusNotFound, msgGatewayNotFound)
	}

	cl := &call{
		req:    req,
		gw:     gw,
		ref:    orders.ParseRef(req.ID),
		logger: logger.With("gateway", gw.Id()),
	}

	var result *Response
	switch action {
	case ActionCreate:
		result = c.create(ctx, cl)
	case ActionShow:
		result = c.show(ctx, cl)
	case ActionWebsocket:
		result = c.websocket(ctx, cl)
	}
	if result == nil {
		return *NotFound(req)
	}
	return *result
}

// find resolves the order of the call. Orders of other gateways are not found
func (c *Controller) find(ctx context.Context, cl *call) (order orders.Order, err error) {
	order, err = c.orders.Find(ctx, cl.ref)
	if err != nil {
		return order, err
	}
	if order.GatewayId != cl.gw.Id() {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return order, nil
}

// lookup is find with the errors already translated.
// A nil response and a nil order mean not found
func (c *Controller) lookup(ctx context.Context, cl *call) (order *orders.Order, res *Response) {
	found, err := c.find(ctx, cl)
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		return nil, nil
	case err != nil:
		cl.logger.Error("failed to find order", "id", cl.ref.String(), "error", err)
		return nil, Text(http.StatusInternalServerError, msgInternalError)
	}
	return &found, nil
}
