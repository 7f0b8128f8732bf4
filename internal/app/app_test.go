package app

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
)

func defaultScenario(t *testing.T) Scenario {
	t.Helper()
	sc, err := DemoConfig{
		ProductID:          "laptop",
		ProductName:        "Laptop",
		ProductDescription: "15 inch laptop",
		Price:              "999.99",
		TaxRate:            "0.21",
		Stock:              10,
		Quantity:           2,
		CustomerID:         "C1",
		CustomerName:       "Ana",
		CustomerAddress:    "Calle Principal 123",
		Payments:           []string{"card:1000", "check:1419.9758"},
	}.Scenario()
	require.NoError(t, err)
	return sc
}

func TestDemo(t *testing.T) {
	ctx := zctx.Base(context.Background(), zaptest.NewLogger(t))
	stores := MemoryStores()
	svc, err := order.NewService(stores.Products, stores.Customers, stores.Orders)
	require.NoError(t, err)

	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	o, err := Demo(ctx, svc, stores, defaultScenario(t), now)
	require.NoError(t, err)

	assert.True(t, d("2419.9758").Equal(o.CalculateTotal()), "total: %s", o.CalculateTotal())
	assert.True(t, d("2419.9758").Equal(o.PaidTotal()))
	assert.Equal(t, order.StatusPaid, o.Status())
	assert.True(t, now.Equal(o.Date))

	payments := o.Payments()
	require.Len(t, payments, 2)
	assert.Equal(t, payment.MethodCard, payment.MethodOf(payments[0]))
	check, ok := payments[1].(payment.Check)
	require.True(t, ok)
	assert.Equal(t, "Ana", check.Holder)

	orders, err := svc.CustomerOrders(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
}

func TestDemo_Underpaid(t *testing.T) {
	ctx := context.Background()
	stores := MemoryStores()
	svc, err := order.NewService(stores.Products, stores.Customers, stores.Orders)
	require.NoError(t, err)

	sc := defaultScenario(t)
	sc.Payments = sc.Payments[:1]

	o, err := Demo(ctx, svc, stores, sc, time.Now())
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status())
	assert.True(t, d("1000").Equal(o.PaidTotal()))
}

func TestDemo_NoPayments(t *testing.T) {
	stores := MemoryStores()
	svc, err := order.NewService(stores.Products, stores.Customers, stores.Orders)
	require.NoError(t, err)

	sc := defaultScenario(t)
	sc.Payments = nil

	o, err := Demo(context.Background(), svc, stores, sc, time.Now())
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status())
	assert.Empty(t, o.Payments())
}
