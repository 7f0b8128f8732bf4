package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomer_PlaceOrder(t *testing.T) {
	c := NewCustomer("C1", "Ana", "Calle Principal 123")

	o1 := c.PlaceOrder("P1", orderDate)
	o2 := c.PlaceOrder("P2", orderDate)

	orders := c.ListOrders()
	require.Len(t, orders, 2)
	assert.Same(t, o1, orders[0])
	assert.Same(t, o2, orders[1])
	assert.Same(t, c, o1.Customer)
	assert.Equal(t, StatusPending, o1.Status())
}

func TestCustomer_NewOrderDoesNotRegister(t *testing.T) {
	c := NewCustomer("C1", "Ana", "")

	o := NewOrder("P1", c, orderDate)

	assert.Same(t, c, o.Customer)
	assert.Empty(t, c.ListOrders())
}

func TestCustomer_ListOrdersIsSnapshot(t *testing.T) {
	c := NewCustomer("C1", "Ana", "")
	c.PlaceOrder("P1", orderDate)

	snapshot := c.ListOrders()
	snapshot[0] = nil
	_ = append(snapshot, NewOrder("X", c, orderDate))

	again := c.ListOrders()
	require.Len(t, again, 1)
	require.NotNil(t, again[0])
	assert.Equal(t, "P1", again[0].ID)
}

func TestCustomer_NoOrders(t *testing.T) {
	c := NewCustomer("C2", "Luis", "")
	assert.Empty(t, c.ListOrders())
}
