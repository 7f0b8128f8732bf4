package order

import "github.com/go-faster/errors"

// Status is the lifecycle stage of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

var (
	// ErrUnknownStatus is returned for status values outside the enumeration.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrStatusNotSettable is returned when a caller tries to assign a
	// status that only the payment rule may set.
	ErrStatusNotSettable = errors.New("order status cannot be set directly")
)

// Settable reports whether s may be assigned through Order.SetStatus.
func (s Status) Settable() bool {
	switch s {
	case StatusCancelled, StatusShipped, StatusDelivered:
		return true
	default:
		return false
	}
}

// ParseStatus validates s against the known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusCancelled, StatusShipped, StatusDelivered:
		return st, nil
	default:
		return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
}
