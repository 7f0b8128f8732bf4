package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-orders/internal/domain/order"
)

const (
	getCustomerByIDSQL = `SELECT id, name, address FROM customers WHERE id = $1`

	listCustomerOrderIDsSQL = `SELECT id FROM orders WHERE customer_id = $1 ORDER BY order_date, id`

	upsertCustomerSQL = `INSERT INTO customers (id, name, address) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address`
)

var _ order.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository implements order.CustomerRepository backed by
// PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Save inserts the customer or updates its name and address. Orders are
// persisted through OrderRepository.
func (r *CustomerRepository) Save(ctx context.Context, c *order.Customer) error {
	if _, err := r.pool.Exec(ctx, upsertCustomerSQL, c.ID, c.Name, c.Address); err != nil {
		return fmt.Errorf("saving customer %q: %w", c.ID, err)
	}
	return nil
}

// GetByID loads the customer together with its orders, oldest first.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*order.Customer, error) {
	l := newLoader(r.pool)

	c, err := l.customer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.customerOrders(ctx, c, nil); err != nil {
		return nil, err
	}
	return c, nil
}
