package product

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLaptop(stock int) *Product {
	return NewProduct(
		"qclvbQs69hhaCmImXBlFOw==",
		"Laptop",
		"15 inch laptop",
		decimal.RequireFromString("999.99"),
		decimal.RequireFromString("0.21"),
		stock,
	)
}

func TestAdjustStock(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		delta     int
		wantStock int
		wantErr   bool
	}{
		{name: "restock", stock: 10, delta: 5, wantStock: 15},
		{name: "partial withdrawal", stock: 10, delta: -3, wantStock: 7},
		{name: "withdraw everything", stock: 10, delta: -10, wantStock: 0},
		{name: "zero delta", stock: 0, delta: 0, wantStock: 0},
		{name: "overdraw", stock: 10, delta: -11, wantStock: 10, wantErr: true},
		{name: "withdraw from empty", stock: 0, delta: -1, wantStock: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newLaptop(tt.stock)

			err := p.AdjustStock(tt.delta)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStockAdjustment)

				var adjErr *StockAdjustmentError
				require.True(t, errors.As(err, &adjErr))
				assert.Equal(t, p.ID, adjErr.ProductID)
				assert.Equal(t, tt.stock, adjErr.Stock)
				assert.Equal(t, tt.delta, adjErr.Delta)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStock, p.Stock())
		})
	}
}

func TestAdjustStock_SequenceNeverNegative(t *testing.T) {
	p := newLaptop(2)

	require.NoError(t, p.AdjustStock(-1))
	require.NoError(t, p.AdjustStock(-1))
	require.Error(t, p.AdjustStock(-1))
	require.NoError(t, p.AdjustStock(4))

	assert.Equal(t, 4, p.Stock())
}

func TestSetPrice(t *testing.T) {
	p := newLaptop(1)

	p.SetPrice(decimal.RequireFromString("899.99"))
	p.SetTaxRate(decimal.RequireFromString("0.10"))

	assert.True(t, decimal.RequireFromString("899.99").Equal(p.Price()))
	assert.True(t, decimal.RequireFromString("0.10").Equal(p.TaxRate()))
}

func TestStockAdjustmentError_Message(t *testing.T) {
	err := &StockAdjustmentError{ProductID: "p1", Stock: 3, Delta: -5}
	assert.Equal(t, "stock of product p1 cannot go negative: 3-5", err.Error())
}

func TestAssign(t *testing.T) {
	p := newLaptop(10)
	src := NewProduct(p.ID, "Laptop Pro", "16 inch laptop",
		decimal.RequireFromString("1499.99"), decimal.RequireFromString("0.1"), 4)

	p.Assign(src)

	assert.Equal(t, "Laptop Pro", p.Name)
	assert.Equal(t, "16 inch laptop", p.Description)
	assert.True(t, decimal.RequireFromString("1499.99").Equal(p.Price()))
	assert.True(t, decimal.RequireFromString("0.1").Equal(p.TaxRate()))
	assert.Equal(t, 4, p.Stock())

	p.Assign(p)
	assert.Equal(t, 4, p.Stock())
}
