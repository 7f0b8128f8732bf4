package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

const (
	upsertOrderSQL = `INSERT INTO orders (id, customer_id, order_date, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()`

	deleteOrderLinesSQL = `DELETE FROM order_lines WHERE order_id = $1`

	insertOrderLineSQL = `INSERT INTO order_lines (order_id, position, product_id, quantity)
		VALUES ($1, $2, $3, $4)`

	countPaymentsSQL = `SELECT count(*) FROM payments WHERE order_id = $1`

	// Payments are append-only: stored sequence numbers are never rewritten,
	// and inserting one twice violates the primary key.
	insertPaymentSQL = `INSERT INTO payments (order_id, seq, method, amount, paid_at,
			card_number, card_expiry, card_network, currency, bank_name, account_holder)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	getOrderByIDSQL = `SELECT id, customer_id, order_date, status FROM orders WHERE id = $1`

	lockOrderByIDSQL = getOrderByIDSQL + ` FOR UPDATE`

	listOrderLinesSQL = `SELECT l.quantity, p.id, p.name, p.description, p.price, p.tax_rate, p.stock
		FROM order_lines l JOIN products p ON p.id = l.product_id
		WHERE l.order_id = $1 ORDER BY l.position`

	listPaymentsSQL = `SELECT method, amount, paid_at, card_number, card_expiry, card_network,
			currency, bank_name, account_holder
		FROM payments WHERE order_id = $1 ORDER BY seq`
)

// ErrStaleOrder is returned by Save when the stored order has payments the
// saved one does not carry.
var ErrStaleOrder = errors.New("order has payments not present in the saved copy")

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Save persists the order in a single transaction: the order row is upserted,
// the lines are replaced and payments not yet stored are appended. It fails
// when more payments are stored than o carries.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return saveOrder(ctx, tx, o)
	})
}

// Update locks the order row for the rest of the transaction, loads the
// order, applies fn and saves the result before committing.
func (r *OrderRepository) Update(ctx context.Context, id string, fn func(*order.Order) error) (*order.Order, error) {
	var o *order.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		if o, err = newLoader(tx).aggregate(ctx, lockOrderByIDSQL, id); err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		return saveOrder(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetByID loads the order with its customer, lines and payments. The
// customer carries all of its orders, o included. Lines that reference the
// same product share one *product.Product.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return newLoader(r.pool).aggregate(ctx, getOrderByIDSQL, id)
}

func saveOrder(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	var customerID *string
	if o.Customer != nil {
		customerID = &o.Customer.ID
	}
	if _, err := tx.Exec(ctx, upsertOrderSQL, o.ID, customerID, o.Date, string(o.Status())); err != nil {
		return fmt.Errorf("saving order %q: %w", o.ID, err)
	}

	var stored int
	if err := tx.QueryRow(ctx, countPaymentsSQL, o.ID).Scan(&stored); err != nil {
		return fmt.Errorf("counting payments of order %q: %w", o.ID, err)
	}
	payments := o.Payments()
	if stored > len(payments) {
		return fmt.Errorf("order %q: %d payments stored, %d to save: %w", o.ID, stored, len(payments), ErrStaleOrder)
	}

	batch := &pgx.Batch{}
	batch.Queue(deleteOrderLinesSQL, o.ID)
	for i, l := range o.Lines() {
		batch.Queue(insertOrderLineSQL, o.ID, i, l.Product.ID, l.Quantity)
	}
	for i := stored; i < len(payments); i++ {
		batch.Queue(insertPaymentSQL, paymentArgs(o.ID, i, payments[i])...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving lines and payments of order %q: %w", o.ID, err)
	}
	return nil
}

// loader rebuilds aggregates, keeping one product instance per ID for the
// lifetime of a single load.
type loader struct {
	q        querier
	products map[string]*product.Product
}

func newLoader(q querier) *loader {
	return &loader{q: q, products: make(map[string]*product.Product)}
}

// aggregate loads the order selected by query, then its customer's other
// orders, so the customer's list includes the returned order.
func (l *loader) aggregate(ctx context.Context, query, id string) (*order.Order, error) {
	o, err := l.order(ctx, query, id, nil)
	if err != nil {
		return nil, err
	}
	if o.Customer != nil {
		if err := l.customerOrders(ctx, o.Customer, o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// customerOrders appends the customer's stored orders to c, oldest first.
// known is reused instead of being loaded again.
func (l *loader) customerOrders(ctx context.Context, c *order.Customer, known *order.Order) error {
	rows, err := l.q.Query(ctx, listCustomerOrderIDsSQL, c.ID)
	if err != nil {
		return fmt.Errorf("listing orders of customer %q: %w", c.ID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("listing orders of customer %q: %w", c.ID, err)
	}

	for _, id := range ids {
		if known != nil && id == known.ID {
			c.AddOrder(known)
			continue
		}
		o, err := l.order(ctx, getOrderByIDSQL, id, c)
		if err != nil {
			return err
		}
		c.AddOrder(o)
	}
	return nil
}

func (l *loader) order(ctx context.Context, query, id string, customer *order.Customer) (*order.Order, error) {
	var (
		customerID *string
		date       time.Time
		status     string
	)
	err := l.q.QueryRow(ctx, query, id).Scan(&id, &customerID, &date, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("order %q: %w", id, err)
	}

	if customer == nil && customerID != nil {
		customer, err = l.customer(ctx, *customerID)
		if err != nil {
			return nil, fmt.Errorf("order %q: %w", id, err)
		}
	}

	lines, err := l.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := l.payments(ctx, id)
	if err != nil {
		return nil, err
	}

	return order.Restore(id, customer, date, st, lines, payments), nil
}

func (l *loader) customer(ctx context.Context, id string) (*order.Customer, error) {
	var name, address string
	err := l.q.QueryRow(ctx, getCustomerByIDSQL, id).Scan(&id, &name, &address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}
	return order.NewCustomer(id, name, address), nil
}

func (l *loader) lines(ctx context.Context, orderID string) ([]order.LineItem, error) {
	rows, err := l.q.Query(ctx, listOrderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing lines of order %q: %w", orderID, err)
	}

	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineItem, error) {
		var (
			quantity              int32
			id, name, description string
			price, taxRate        decimal.Decimal
			stock                 int32
		)
		if err := row.Scan(&quantity, &id, &name, &description, &price, &taxRate, &stock); err != nil {
			return order.LineItem{}, err
		}
		p, ok := l.products[id]
		if !ok {
			p = product.NewProduct(id, name, description, price, taxRate, int(stock))
			l.products[id] = p
		}
		return order.LineItem{Product: p, Quantity: int(quantity)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning lines of order %q: %w", orderID, err)
	}
	return lines, nil
}

func (l *loader) payments(ctx context.Context, orderID string) ([]payment.Payment, error) {
	rows, err := l.q.Query(ctx, listPaymentsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing payments of order %q: %w", orderID, err)
	}

	payments, err := pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("scanning payments of order %q: %w", orderID, err)
	}
	return payments, nil
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var (
		method     string
		amount     decimal.Decimal
		paidAt     time.Time
		cardNumber string
		cardExpiry *time.Time
		network    string
		currency   string
		bank       string
		holder     string
	)
	err := row.Scan(&method, &amount, &paidAt, &cardNumber, &cardExpiry, &network,
		&currency, &bank, &holder)
	if err != nil {
		return nil, err
	}

	m, err := payment.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	switch m {
	case payment.MethodCard:
		var expiry time.Time
		if cardExpiry != nil {
			expiry = *cardExpiry
		}
		return payment.NewCard(amount, paidAt, cardNumber, expiry, network), nil
	case payment.MethodCash:
		return payment.NewCash(amount, paidAt, currency), nil
	default:
		return payment.NewCheck(amount, paidAt, bank, holder), nil
	}
}

// paymentArgs flattens p into the insertPaymentSQL parameters.
func paymentArgs(orderID string, seq int, p payment.Payment) []any {
	var (
		cardNumber, network, currency, bank, holder string
		cardExpiry                                  *time.Time
	)
	switch v := deref(p).(type) {
	case payment.Card:
		cardNumber, network = v.Number, v.Network
		if !v.Expiry.IsZero() {
			cardExpiry = &v.Expiry
		}
	case payment.Cash:
		currency = v.Currency
	case payment.Check:
		bank, holder = v.Bank, v.Holder
	}
	return []any{
		orderID, seq, string(payment.MethodOf(p)), p.Amount(), p.Date(),
		cardNumber, cardExpiry, network, currency, bank, holder,
	}
}

func deref(p payment.Payment) payment.Payment {
	switch v := p.(type) {
	case *payment.Card:
		return *v
	case *payment.Cash:
		return *v
	case *payment.Check:
		return *v
	default:
		return p
	}
}
