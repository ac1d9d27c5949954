package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"anarchy.ttfm/straight/decimal"
	"anarchy.ttfm/straight/orders"
	"github.com/gin-gonic/gin"
)

// Update is what websocket observers receive on every status change
type Update struct {
	// Identifier of the order
	Id        uint64 `json:"id"`
	PaymentId string `json:"payment_id"`
	// Status code and its name
	Status     orders.Status `json:"status"`
	StatusName string        `json:"status_name"`
	// Amounts in the unit the order was requested in
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	// Address the payer sends to
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
}

func UpdateFromOrder(src *orders.Order) (update Update) {
	update = Update{
		Id:         src.Id,
		PaymentId:  src.PaymentId,
		Status:     src.Status,
		StatusName: src.Status.String(),
		Address:    src.Address,
		ExpiresAt:  src.ExpiresAt,
	}
	exponent := src.BtcDenomination.Exponent()
	update.Amount.FromUnits(src.Amount, exponent)
	update.AmountPaid.FromUnits(src.AmountPaid, exponent)
	return update
}

// ClientAddr prefers the first X-Forwarded-For entry over the peer address
func ClientAddr(r *http.Request) (addr string) {
	forwarded := r.Header.Get("X-Forwarded-For")
	if first, _, _ := strings.Cut(forwarded, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Params merges query, form and JSON body params. Later sources win
func Params(r *http.Request) (params map[string]any, err error) {
	params = map[string]any{}
	for key, values := range r.URL.Query() {
		params[key] = values[len(values)-1]
	}

	contentType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	switch strings.TrimSpace(contentType) {
	case gin.MIMEJSON:
		var body map[string]any
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()
		err = decoder.Decode(&body)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode body: %w", err)
		}
		for key, value := range body {
			params[key] = value
		}
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		err = r.ParseMultipartForm(32 << 20)
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
		for key, values := range r.PostForm {
			params[key] = values[len(values)-1]
		}
	}
	return params, nil
}
