package order

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order aggregates line items and the payments applied against them.
//
// The total is computed from the line items on every call. Payments are
// append-only; once they cover the total a pending order becomes paid.
// All methods are safe for concurrent use, one writer at a time.
type Order struct {
	ID       string
	Customer *Customer
	Date     time.Time

	mu       sync.Mutex
	lines    []LineItem
	payments []payment.Payment
	status   Status
}

// NewOrder creates a pending order with no lines and no payments. It does not
// register the order with the customer; see Customer.PlaceOrder.
func NewOrder(id string, customer *Customer, date time.Time) *Order {
	return &Order{
		ID:       id,
		Customer: customer,
		Date:     date,
		status:   StatusPending,
	}
}

// Restore rebuilds an order from persisted state without replaying the
// payment rule.
func Restore(
	id string,
	customer *Customer,
	date time.Time,
	status Status,
	lines []LineItem,
	payments []payment.Payment,
) *Order {
	return &Order{
		ID:       id,
		Customer: customer,
		Date:     date,
		lines:    slices.Clone(lines),
		payments: slices.Clone(payments),
		status:   status,
	}
}

// AddLine appends a line for quantity units of p.
func (o *Order) AddLine(p *product.Product, quantity int) {
	o.mu.Lock()
	o.lines = append(o.lines, LineItem{Product: p, Quantity: quantity})
	o.mu.Unlock()
}

// Lines returns a copy of the order lines in insertion order.
func (o *Order) Lines() []LineItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.lines)
}

// Payments returns a copy of the applied payments in the order they arrived.
func (o *Order) Payments() []payment.Payment {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.payments)
}

// Status returns the current lifecycle stage.
func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// SetStatus assigns one of the fulfilment stages: cancelled, shipped or
// delivered. Pending and paid are reached only through NewOrder and
// AddPayment, so they are rejected with ErrStatusNotSettable.
func (o *Order) SetStatus(s Status) error {
	if _, err := ParseStatus(string(s)); err != nil {
		return err
	}
	if !s.Settable() {
		return errors.Wrapf(ErrStatusNotSettable, "%q", s)
	}
	o.mu.Lock()
	o.status = s
	o.mu.Unlock()
	return nil
}

// CalculateTotal returns the sum of the line subtotals.
func (o *Order) CalculateTotal() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.total()
}

// PaidTotal returns the sum of all applied payment amounts.
func (o *Order) PaidTotal() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return payment.Total(o.payments)
}

// AddPayment appends p without validating its amount. When the payments
// then cover the total the order becomes paid, whatever its status was.
func (o *Order) AddPayment(p payment.Payment) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.payments = append(o.payments, p)

	if payment.Total(o.payments).GreaterThanOrEqual(o.total()) {
		o.status = StatusPaid
	}
}

func (o *Order) total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Save persists o as given. It does not detect concurrent changes;
	// read-modify-write goes through Update.
	Save(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// Update applies fn to the stored order and persists the result as one
	// step; concurrent updates of the same order are serialised. Nothing is
	// written when fn fails, and its error is returned unchanged.
	Update(ctx context.Context, id string, fn func(o *Order) error) (*Order, error)
}
