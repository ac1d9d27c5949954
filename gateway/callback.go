package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"anarchy.ttfm/straight/orders"
	"anarchy.ttfm/straight/utils"
)

// CallbackQuery is what the merchant receives on every status change
func CallbackQuery(order orders.Order) (query url.Values) {
	query = url.Values{}
	query.Set("order_id", strconv.FormatUint(order.Id, 10))
	query.Set("amount", strconv.FormatUint(order.Amount, 10))
	query.Set("status", strconv.Itoa(int(order.Status)))
	query.Set("address", order.Address)
	query.Set("keychain_id", strconv.FormatUint(order.KeychainId, 10))
	if order.CallbackData != nil {
		query.Set("callback_data", *order.CallbackData)
	}
	return query
}

// callback notifies the merchant in the background
func (g *Gateway) callback(order orders.Order) {
	if g.config.CallbackURL == "" {
		return
	}

	utils.Go(g.logger, fmt.Sprintf("callback order %d", order.Id), func() (err error) {
		err = g.sendCallback(order)
		if err != nil {
			g.engine.metrics.CallbackFailures.Inc()
		}
		return err
	})
}

func (g *Gateway) sendCallback(order orders.Order) (err error) {
	ctx, cancel := utils.NewContextWithTimeout(DefaultCallbackTimeout)
	defer cancel()

	u, err := url.Parse(g.config.CallbackURL)
	if err != nil {
		return fmt.Errorf("failed to parse callback url: %w", err)
	}
	query := u.Query()
	for key, values := range CallbackQuery(order) {
		query[key] = values
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to prepare callback: %w", err)
	}

	res, err := g.engine.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send callback: %w", err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("callback rejected with status %d", res.StatusCode)
	}
	return nil
}
