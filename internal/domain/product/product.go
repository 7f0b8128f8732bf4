package product

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidStockAdjustment is returned when an adjustment would drive
	// stock below zero.
	ErrInvalidStockAdjustment = errors.New("invalid stock adjustment")
)

// StockAdjustmentError describes a rejected stock adjustment. It unwraps to
// ErrInvalidStockAdjustment.
type StockAdjustmentError struct {
	ProductID string
	Stock     int
	Delta     int
}

func (e *StockAdjustmentError) Error() string {
	return fmt.Sprintf("stock of product %s cannot go negative: %d%+d", e.ProductID, e.Stock, e.Delta)
}

func (e *StockAdjustmentError) Unwrap() error {
	return ErrInvalidStockAdjustment
}

// Product is an inventory record. Line items hold a pointer to it, so price
// and tax changes are visible to every order that references the product.
type Product struct {
	ID          string
	Name        string
	Description string

	mu      sync.Mutex
	price   decimal.Decimal
	taxRate decimal.Decimal
	stock   int
}

// NewProduct creates a product with the given unit price, tax rate (as a
// fraction, 0.21 for 21%) and initial stock.
func NewProduct(id, name, description string, price, taxRate decimal.Decimal, stock int) *Product {
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		price:       price,
		taxRate:     taxRate,
		stock:       stock,
	}
}

// Price returns the current unit price.
func (p *Product) Price() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.price
}

// TaxRate returns the current tax rate.
func (p *Product) TaxRate() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.taxRate
}

// Stock returns the units currently available.
func (p *Product) Stock() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stock
}

// SetPrice replaces the unit price.
func (p *Product) SetPrice(price decimal.Decimal) {
	p.mu.Lock()
	p.price = price
	p.mu.Unlock()
}

// SetTaxRate replaces the tax rate.
func (p *Product) SetTaxRate(rate decimal.Decimal) {
	p.mu.Lock()
	p.taxRate = rate
	p.mu.Unlock()
}

// Assign copies the descriptive fields, price, tax rate and stock of src
// into p, keeping p's identity so existing line items see the new values.
func (p *Product) Assign(src *Product) {
	if src == p {
		return
	}
	price, taxRate, stock := src.Price(), src.TaxRate(), src.Stock()

	p.mu.Lock()
	p.Name = src.Name
	p.Description = src.Description
	p.price = price
	p.taxRate = taxRate
	p.stock = stock
	p.mu.Unlock()
}

// AdjustStock adds delta (which may be negative) to the stock. When the result
// would be negative the stock is left untouched and a *StockAdjustmentError is
// returned.
func (p *Product) AdjustStock(delta int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stock+delta < 0 {
		return &StockAdjustmentError{ProductID: p.ID, Stock: p.stock, Delta: delta}
	}
	p.stock += delta
	return nil
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Product, error)
	Save(ctx context.Context, p *Product) error
	// Update applies fn to the stored product and persists the result as one
	// step; concurrent updates of the same product are serialised. Nothing
	// is written when fn fails, and its error is returned unchanged.
	Update(ctx context.Context, id string, fn func(p *Product) error) (*Product, error)
}
