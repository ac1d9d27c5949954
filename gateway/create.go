package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"anarchy.ttfm/straight/decimal"
	"anarchy.ttfm/straight/orders"
	"anarchy.ttfm/straight/wallets"
)

// Sign computes the signature a merchant must send along keychainId
func Sign(secret string, keychainId uint64) (signature string) {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatUint(keychainId, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *Gateway) validSignature(keychainId uint64, signature string) (valid bool) {
	received, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	expected, _ := hex.DecodeString(Sign(g.config.Secret, keychainId))
	return hmac.Equal(received, expected)
}

// request is a payload that passed validation
type request struct {
	amount        uint64
	currency      string
	denomination  orders.Denomination
	keychainId    uint64
	hasKeychainId bool
	callbackData  *string
	data          json.RawMessage
	signature     string
}

func (g *Gateway) validate(payload orders.Payload) (req request, err error) {
	var invalid orders.ValidationError

	req.denomination, err = orders.ParseDenomination(payload.BtcDenomination)
	if err != nil {
		invalid.Add("btc_denomination is invalid")
	}

	switch {
	case payload.Amount == "":
		invalid.Add("amount is not present")
	default:
		var amount decimal.Decimal
		err = amount.FromString(payload.Amount)
		if err != nil {
			invalid.Add("amount is not a number")
			break
		}
		req.amount, err = amount.ToUnits(req.denomination.Exponent())
		switch {
		case err != nil:
			invalid.Add("amount is invalid: %v", err)
		case req.amount == 0:
			invalid.Add("amount must be greater than 0")
		}
	}

	req.currency = strings.ToUpper(strings.TrimSpace(payload.Currency))
	if req.currency == "" {
		req.currency = g.config.DefaultCurrency
	}
	if !slices.Contains(g.config.Currencies, req.currency) {
		invalid.Add("currency %s is not supported", req.currency)
	}

	if payload.KeychainId != "" {
		req.keychainId, err = strconv.ParseUint(strings.TrimSpace(payload.KeychainId), 10, 64)
		if err != nil {
			invalid.Add("keychain_id must be a non negative integer")
		}
		req.hasKeychainId = err == nil
	}

	req.callbackData = payload.CallbackData
	req.data = payload.Data
	req.signature = payload.Signature
	return req, invalid.OrNil()
}

// CreateOrder validates payload, derives a payment address and stores a new order.
//
// Errors: ErrGatewayInactive, *orders.ValidationError, ErrInvalidOrderId and
// ErrInvalidSignature. Anything else comes from the wallet or the store
func (g *Gateway) CreateOrder(ctx context.Context, payload orders.Payload) (order orders.Order, err error) {
	if !g.config.Active {
		return order, ErrGatewayInactive
	}

	req, err := g.validate(payload)
	if err != nil {
		return order, err
	}

	if g.config.CheckSignature {
		if !req.hasKeychainId || req.keychainId == 0 {
			return order, fmt.Errorf("%w: %q", ErrInvalidOrderId, payload.KeychainId)
		}
		if !g.validSignature(req.keychainId, req.signature) {
			return order, fmt.Errorf("%w for id: %d", ErrInvalidSignature, req.keychainId)
		}
	}

	var address wallets.Address
	if req.hasKeychainId {
		address, err = g.engine.wallet.Address(ctx, wallets.AddressRequest{Index: req.keychainId})
	} else {
		address, err = g.engine.wallet.NewAddress(ctx, wallets.NewAddressRequest{Label: g.String()})
	}
	if err != nil {
		return order, fmt.Errorf("failed to derive payment address: %w", err)
	}

	now := g.engine.now()
	order = orders.Order{
		GatewayId:       g.config.Id,
		Status:          orders.StatusNew,
		Amount:          req.amount,
		Currency:        req.currency,
		BtcDenomination: req.denomination,
		KeychainId:      address.Index,
		Address:         address.Address,
		CallbackData:    req.callbackData,
		Data:            req.data,
		CreatedAt:       now,
		ExpiresAt:       now.Add(g.config.OrderExpiration),
	}
	err = g.engine.store.Create(ctx, &order)
	if err != nil {
		return order, fmt.Errorf("failed to store order: %w", err)
	}

	g.engine.metrics.OrdersCreated.WithLabelValues(strconv.FormatUint(g.config.Id, 10)).Inc()
	g.logger.Info("order created", "order", order.Id, "amount", order.Amount, "address", order.Address)
	return order, nil
}
