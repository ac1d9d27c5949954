package orders

import (
	"strconv"
)

type RefKind uint8

const (
	// RefInvalid never matches an order
	RefInvalid RefKind = iota
	RefNumeric
	RefPayment
)

// Ref identifies an order either by its numeric id or by its payment id
type Ref struct {
	Kind      RefKind
	Id        uint64
	PaymentId string
}

func NumericRef(id uint64) (ref Ref) {
	return Ref{Kind: RefNumeric, Id: id}
}

func PaymentRef(paymentId string) (ref Ref) {
	return Ref{Kind: RefPayment, PaymentId: paymentId}
}

func isDigits(s string) (digits bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseRef picks the lookup path from the shape of raw: only decimal digits
// means a numeric id, anything else a payment id.
// Digits that overflow uint64 yield RefInvalid
func ParseRef(raw string) (ref Ref) {
	switch {
	case raw == "":
		return Ref{Kind: RefInvalid}
	case isDigits(raw):
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Ref{Kind: RefInvalid}
		}
		return NumericRef(id)
	default:
		return PaymentRef(raw)
	}
}

func (r Ref) String() string {
	switch r.Kind {
	case RefNumeric:
		return strconv.FormatUint(r.Id, 10)
	case RefPayment:
		return r.PaymentId
	default:
		return "<invalid>"
	}
}
