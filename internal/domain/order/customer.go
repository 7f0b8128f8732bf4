package order

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// ErrCustomerNotFound is returned when a requested customer does not exist.
var ErrCustomerNotFound = errors.New("customer not found")

// Customer owns an ordered list of orders. Only the customer mutates that
// list; callers get copies from ListOrders.
type Customer struct {
	ID      string
	Name    string
	Address string // optional

	mu     sync.Mutex
	orders []*Order
}

// NewCustomer creates a customer with no orders.
func NewCustomer(id, name, address string) *Customer {
	return &Customer{ID: id, Name: name, Address: address}
}

// PlaceOrder creates a pending order for the customer and appends it to the
// customer's orders.
func (c *Customer) PlaceOrder(id string, date time.Time) *Order {
	o := NewOrder(id, c, date)
	c.AddOrder(o)
	return o
}

// AddOrder appends an existing order, typically one loaded from storage.
func (c *Customer) AddOrder(o *Order) {
	c.mu.Lock()
	c.orders = append(c.orders, o)
	c.mu.Unlock()
}

// ListOrders returns a snapshot of the customer's orders. Changing the
// returned slice does not affect the customer.
func (c *Customer) ListOrders() []*Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.orders)
}

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	Save(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
}
