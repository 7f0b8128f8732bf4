package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, tax_rate, stock`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	lockProductByIDSQL = getProductByIDSQL + ` FOR UPDATE`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (id, name, description, price, tax_rate, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			tax_rate = EXCLUDED.tax_rate,
			stock = EXCLUDED.stock,
			updated_at = now()`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]*product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Save inserts the product or overwrites the stored one.
func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	return saveProduct(ctx, r.pool, p)
}

// Update locks the product row, applies fn to the stored product and writes
// it back in the same transaction.
func (r *ProductRepository) Update(ctx context.Context, id string, fn func(*product.Product) error) (*product.Product, error) {
	var p *product.Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, lockProductByIDSQL, id)
		if err != nil {
			return fmt.Errorf("locking product %q: %w", id, err)
		}
		p, err = pgx.CollectExactlyOneRow(rows, scanProduct)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return product.ErrNotFound
			}
			return fmt.Errorf("locking product %q: %w", id, err)
		}

		if err := fn(p); err != nil {
			return err
		}
		return saveProduct(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func saveProduct(ctx context.Context, q querier, p *product.Product) error {
	_, err := q.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, p.Price(), p.TaxRate(), p.Stock(),
	)
	if err != nil {
		return fmt.Errorf("saving product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (*product.Product, error) {
	var (
		id, name, description string
		price, taxRate        decimal.Decimal
		stock                 int32
	)
	if err := row.Scan(&id, &name, &description, &price, &taxRate, &stock); err != nil {
		return nil, err
	}
	return product.NewProduct(id, name, description, price, taxRate, int(stock)), nil
}
