package orders

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

type Order struct {
	// Sequential identifier, unique across all gateways
	Id uint64 `json:"id"`
	// Opaque identifier safe to hand to payers. Always holds a letter
	PaymentId string `json:"payment_id"`
	// Gateway owning the order
	GatewayId uint64 `json:"gateway_id"`
	Status    Status `json:"status"`
	// Expected amount in the smallest unit of the currency
	Amount uint64 `json:"amount"`
	// Confirmed amount received so far
	AmountPaid      uint64       `json:"amount_paid"`
	Currency        string       `json:"currency"`
	BtcDenomination Denomination `json:"btc_denomination"`
	// Keychain index the payment address was derived from
	KeychainId uint64 `json:"keychain_id"`
	Address    string `json:"address"`
	// Echoed back to the merchant callback
	CallbackData *string         `json:"callback_data,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`

	// Status at the last load or save
	persisted Status
}

// StatusChanged reports whether Status differs from what is persisted
func (o *Order) StatusChanged() (changed bool) {
	return o.Status != o.persisted
}

// MarkPersisted records the current status as the stored one
func (o *Order) MarkPersisted() {
	o.persisted = o.Status
}

func (o *Order) Expired(now time.Time) (expired bool) {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}

func (o *Order) Bytes() (bytes []byte) {
	bytes, _ = json.Marshal(o)
	return bytes
}

func (o *Order) FromBytes(b []byte) (err error) {
	err = json.Unmarshal(b, o)
	if err != nil {
		return err
	}
	o.MarkPersisted()
	return nil
}
