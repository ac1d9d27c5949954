package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"anarchy.ttfm/straight/gateway"
	"anarchy.ttfm/straight/orders"
	"anarchy.ttfm/straight/throttle"
)

const (
	msgTooManyRequests  = "Too many requests, please try again later"
	msgGatewayInactive  = "The gateway is inactive, you cannot create order with it"
	callbackDataWarning = "Maybe you meant to use callback_data? The API has changed now. Consult the documentation."
)

func (c *Controller) create(ctx context.Context, cl *call) (res *Response) {
	payload, err := orders.PayloadFromParams(cl.req.Params)
	if err != nil {
		return c.rejectOrder(cl, payload, err)
	}

	if !cl.gw.CheckSignature() && c.throttler != nil {
		verdict, err := c.throttler.Decide(ctx, cl.gw.Id(), cl.req.ClientAddr)
		switch {
		case err != nil:
			cl.logger.Error("failed to consult throttle, letting the request through", "client", cl.req.ClientAddr, "error", err)
		case verdict == throttle.Deny:
			cl.logger.Warn(msgTooManyRequests, "client", cl.req.ClientAddr)
			c.metrics.ThrottleDenied.Inc()
			return Text(http.StatusTooManyRequests, msgTooManyRequests)
		}
	}

	order, err := cl.gw.CreateOrder(ctx, payload)
	if err != nil {
		return c.rejectOrder(cl, payload, err)
	}

	c.spawn(fmt.Sprintf("status check order %d", order.Id), func() error {
		return cl.gw.StartPeriodicStatusCheck(c.ctx, order)
	})

	body, err := withCallbackDataWarning(order, cl.req.Params)
	if err != nil {
		cl.logger.Error("failed to serialize order", "order", order.Id, "error", err)
		return Text(http.StatusInternalServerError, msgInternalError)
	}
	return JSON(http.StatusCreated, body)
}

// rejectOrder translates creation failures
func (c *Controller) rejectOrder(cl *call, payload orders.Payload, err error) (res *Response) {
	var (
		invalid *orders.ValidationError
		unknown *orders.UnknownParamError
	)
	switch {
	case errors.Is(err, orders.ErrLegacyOrderId):
		c.metrics.OrderCreateRejected.WithLabelValues("legacy_param").Inc()
		return Text(http.StatusConflict, "Error: "+err.Error()+".")
	case errors.As(err, &unknown):
		c.metrics.OrderCreateRejected.WithLabelValues("unknown_param").Inc()
		return Text(http.StatusConflict, "Error: "+unknown.Error())
	case errors.As(err, &invalid):
		c.metrics.OrderCreateRejected.WithLabelValues("validation").Inc()
		cl.logger.Warn("VALIDATION ERRORS in order, cannot create it", "failures", invalid.Enumerate(), "payload", payload.String())
		return Text(http.StatusConflict, "Invalid order:\n"+invalid.Enumerate())
	case errors.Is(err, gateway.ErrInvalidSignature):
		c.metrics.OrderCreateRejected.WithLabelValues("signature").Inc()
		return Text(http.StatusConflict, "Invalid signature for id: "+payload.KeychainId)
	case errors.Is(err, gateway.ErrInvalidOrderId):
		c.metrics.OrderCreateRejected.WithLabelValues("order_id").Inc()
		message := "An invalid id for order supplied: " + payload.KeychainId
		cl.logger.Warn(message)
		return Text(http.StatusConflict, message)
	case errors.Is(err, gateway.ErrGatewayInactive):
		c.metrics.OrderCreateRejected.WithLabelValues("inactive").Inc()
		cl.logger.Warn(msgGatewayInactive)
		return Text(http.StatusServiceUnavailable, msgGatewayInactive)
	default:
		c.metrics.OrderCreateRejected.WithLabelValues("internal").Inc()
		cl.logger.Error("failed to create order", "payload", payload.String(), "error", err)
		return Text(http.StatusInternalServerError, msgInternalError)
	}
}

// withCallbackDataWarning adds a WARNING field to the order when the merchant
// sent text in data and nothing in callback_data, as the old API expected
func withCallbackDataWarning(order orders.Order, params map[string]any) (body map[string]json.RawMessage, err error) {
	encoded, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(encoded, &body)
	if err != nil {
		return nil, err
	}

	_, dataIsText := params[orders.ParamData].(string)
	if dataIsText && params[orders.ParamCallbackData] == nil {
		body["WARNING"], _ = json.Marshal(callbackDataWarning)
	}
	return body, nil
}
