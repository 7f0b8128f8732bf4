package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/product"
)

var one = decimal.NewFromInt(1)

// LineItem pairs a product with a quantity. It keeps a reference to the
// product rather than a copy of its price: Subtotal always reflects the
// product's current price and tax rate, including for orders placed earlier.
type LineItem struct {
	Product  *product.Product
	Quantity int
}

// Subtotal returns Quantity × price × (1 + tax rate).
func (l LineItem) Subtotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(l.Quantity))
	gross := l.Product.Price().Mul(one.Add(l.Product.TaxRate()))
	return qty.Mul(gross)
}
