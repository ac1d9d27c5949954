package orders

import "fmt"

// Status is the lifecycle code of an order as exposed to merchants
type Status int

const (
	StatusNew Status = iota
	StatusUnconfirmed
	StatusPaid
	StatusUnderpaid
	StatusOverpaid
	StatusExpired
	StatusCanceled
)

// Terminal statuses are never re-derived
func (s Status) Terminal() (terminal bool) {
	return s >= StatusPaid
}

// CompletedAbove reports whether the order went past threshold.
// Observers cannot attach to completed orders
func (s Status) CompletedAbove(threshold Status) (completed bool) {
	return s > threshold
}

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusUnconfirmed:
		return "unconfirmed"
	case StatusPaid:
		return "paid"
	case StatusUnderpaid:
		return "underpaid"
	case StatusOverpaid:
		return "overpaid"
	case StatusExpired:
		return "expired"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
