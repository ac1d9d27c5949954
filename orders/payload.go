package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	ParamAmount          = "amount"
	ParamCurrency        = "currency"
	ParamBtcDenomination = "btc_denomination"
	ParamKeychainId      = "keychain_id"
	ParamSignature       = "signature"
	ParamCallbackData    = "callback_data"
	ParamData            = "data"

	// Replaced by keychain_id
	ParamLegacyOrderId = "order_id"
)

var knownParams = map[string]struct{}{
	ParamAmount:          {},
	ParamCurrency:        {},
	ParamBtcDenomination: {},
	ParamKeychainId:      {},
	ParamSignature:       {},
	ParamCallbackData:    {},
	ParamData:            {},
}

var ErrLegacyOrderId = errors.New("order_id is no longer a valid param. Use keychain_id instead and consult the documentation")

// UnknownParamError lists creation params nobody reads
type UnknownParamError struct {
	Params []string
}

func (e *UnknownParamError) Error() string {
	return "unknown params: " + strings.Join(e.Params, ", ")
}

// ValidationError collects every problem found in a payload
type ValidationError struct {
	Failures []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Failures, ", ")
}

func (e *ValidationError) Add(format string, args ...any) {
	e.Failures = append(e.Failures, fmt.Sprintf(format, args...))
}

// OrNil returns nil when nothing failed
func (e *ValidationError) OrNil() (err error) {
	if len(e.Failures) == 0 {
		return nil
	}
	return e
}

// Enumerate renders the failures as a 1-indexed list, one per line
func (e *ValidationError) Enumerate() (s string) {
	var b strings.Builder
	for index, failure := range e.Failures {
		if index > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", index+1, strings.TrimSpace(failure))
	}
	return b.String()
}

// Payload is what a merchant may send to create an order.
// Values are kept as sent; the gateway decides what is valid.
type Payload struct {
	// Amount in BtcDenomination units
	Amount          string
	Currency        string
	BtcDenomination string
	KeychainId      string
	Signature       string
	CallbackData    *string
	// Free form merchant data, kept verbatim
	Data json.RawMessage
}

func (p Payload) String() string {
	var callbackData string
	if p.CallbackData != nil {
		callbackData = *p.CallbackData
	}
	return fmt.Sprintf("{amount: %q, currency: %q, btc_denomination: %q, keychain_id: %q, signature: %q, callback_data: %q, data: %s}",
		p.Amount, p.Currency, p.BtcDenomination, p.KeychainId, p.Signature, callbackData, string(p.Data))
}

func scalar(value any) (s string, ok bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	default:
		return "", false
	}
}

// PayloadFromParams builds a Payload out of request params.
// The legacy order_id and any unknown param are rejected before anything
// else is looked at
func PayloadFromParams(params map[string]any) (payload Payload, err error) {
	if _, found := params[ParamLegacyOrderId]; found {
		return payload, ErrLegacyOrderId
	}

	var unknown []string
	for key := range params {
		if _, known := knownParams[key]; !known {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return payload, &UnknownParamError{Params: unknown}
	}

	var invalid ValidationError
	text := func(key string) (s string) {
		value, found := params[key]
		if !found || value == nil {
			return ""
		}
		s, ok := scalar(value)
		if !ok {
			invalid.Add("%s must be a scalar value", key)
		}
		return s
	}

	payload = Payload{
		Amount:          text(ParamAmount),
		Currency:        text(ParamCurrency),
		BtcDenomination: text(ParamBtcDenomination),
		KeychainId:      text(ParamKeychainId),
		Signature:       text(ParamSignature),
	}
	if value, found := params[ParamCallbackData]; found && value != nil {
		callbackData := text(ParamCallbackData)
		payload.CallbackData = &callbackData
	}
	if value, found := params[ParamData]; found && value != nil {
		payload.Data, err = json.Marshal(value)
		if err != nil {
			invalid.Add("data cannot be stored: %v", err)
		}
	}

	err = invalid.OrNil()
	if err != nil {
		return payload, err
	}
	return payload, nil
}
