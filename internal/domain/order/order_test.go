package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

var orderDate = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newLaptop() *product.Product {
	return product.NewProduct(
		"qclvbQs69hhaCmImXBlFOw==",
		"Laptop",
		"15 inch laptop",
		d("999.99"),
		d("0.21"),
		10,
	)
}

func newReferenceOrder() *Order {
	c := NewCustomer("C1", "Ana", "Calle Principal 123")
	o := c.PlaceOrder("P1", orderDate)
	o.AddLine(newLaptop(), 2)
	return o
}

func cash(amount string) payment.Payment {
	return payment.NewCash(d(amount), orderDate, "EUR")
}

func TestLineItem_Subtotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		tax      string
		quantity int
		want     string
	}{
		{name: "reference laptop", price: "999.99", tax: "0.21", quantity: 2, want: "2419.9758"},
		{name: "no tax", price: "10", tax: "0", quantity: 3, want: "30"},
		{name: "single unit", price: "100", tax: "0.10", quantity: 1, want: "110"},
		{name: "zero quantity", price: "100", tax: "0.10", quantity: 0, want: "0"},
		{name: "negative quantity", price: "10", tax: "0", quantity: -2, want: "-20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := product.NewProduct("p", "P", "", d(tt.price), d(tt.tax), 0)
			l := LineItem{Product: p, Quantity: tt.quantity}

			got := l.Subtotal()
			assert.True(t, d(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestLineItem_SubtotalUsesCurrentPrice(t *testing.T) {
	p := product.NewProduct("p", "P", "", d("10"), d("0"), 5)
	o := NewOrder("o1", nil, orderDate)
	o.AddLine(p, 2)

	require.True(t, d("20").Equal(o.CalculateTotal()))

	p.SetPrice(d("15"))
	p.SetTaxRate(d("0.5"))

	assert.True(t, d("45").Equal(o.CalculateTotal()))
}

func TestCalculateTotal(t *testing.T) {
	o := newReferenceOrder()
	assert.True(t, d("2419.9758").Equal(o.CalculateTotal()))

	// Repeated calls without mutation return the same value.
	assert.True(t, o.CalculateTotal().Equal(o.CalculateTotal()))
}

func TestCalculateTotal_Empty(t *testing.T) {
	o := NewOrder("o1", nil, orderDate)
	assert.True(t, decimal.Zero.Equal(o.CalculateTotal()))
}

func TestCalculateTotal_OrderIndependent(t *testing.T) {
	a := product.NewProduct("a", "A", "", d("3.33"), d("0.21"), 0)
	b := product.NewProduct("b", "B", "", d("7.10"), d("0.04"), 0)
	c := product.NewProduct("c", "C", "", d("0.99"), d("0"), 0)

	forward := NewOrder("f", nil, orderDate)
	forward.AddLine(a, 3)
	forward.AddLine(b, 1)
	forward.AddLine(c, 7)

	reverse := NewOrder("r", nil, orderDate)
	reverse.AddLine(c, 7)
	reverse.AddLine(b, 1)
	reverse.AddLine(a, 3)

	sum := decimal.Zero
	for _, l := range forward.Lines() {
		sum = sum.Add(l.Subtotal())
	}

	assert.True(t, forward.CalculateTotal().Equal(reverse.CalculateTotal()))
	assert.True(t, sum.Equal(forward.CalculateTotal()))
}

func TestAddPayment_FullAmount(t *testing.T) {
	o := newReferenceOrder()
	require.Equal(t, StatusPending, o.Status())

	o.AddPayment(cash("2419.9758"))

	assert.Equal(t, StatusPaid, o.Status())
	assert.True(t, d("2419.9758").Equal(o.PaidTotal()))
}

func TestAddPayment_SplitPayment(t *testing.T) {
	o := newReferenceOrder()

	o.AddPayment(cash("1000"))
	assert.Equal(t, StatusPending, o.Status())

	o.AddPayment(payment.NewCheck(d("1419.9758"), orderDate, "Banco Central", "Ana"))
	assert.Equal(t, StatusPaid, o.Status())
}

func TestAddPayment_Underpaid(t *testing.T) {
	o := newReferenceOrder()

	o.AddPayment(cash("2419.9757"))

	assert.Equal(t, StatusPending, o.Status())
}

func TestAddPayment_StaysPaid(t *testing.T) {
	o := newReferenceOrder()

	o.AddPayment(cash("3000"))
	require.Equal(t, StatusPaid, o.Status())

	o.AddPayment(cash("1"))
	o.AddPayment(cash("0"))

	assert.Equal(t, StatusPaid, o.Status())
	assert.True(t, d("3001").Equal(o.PaidTotal()))
	assert.Len(t, o.Payments(), 3)
}

func TestAddPayment_AccruesAllAmounts(t *testing.T) {
	amounts := []string{"10", "0.01", "250.5", "-5", "0"}
	o := newReferenceOrder()

	want := decimal.Zero
	prev := decimal.Zero
	for _, a := range amounts {
		o.AddPayment(cash(a))
		want = want.Add(d(a))
		assert.True(t, want.Equal(o.PaidTotal()))
		if !d(a).IsNegative() {
			assert.True(t, o.PaidTotal().GreaterThanOrEqual(prev))
		}
		prev = o.PaidTotal()
	}
	assert.Equal(t, StatusPending, o.Status())
}

func TestAddPayment_CoveringPaymentOverridesExternalStatus(t *testing.T) {
	for _, st := range []Status{StatusCancelled, StatusShipped, StatusDelivered} {
		t.Run(string(st), func(t *testing.T) {
			o := newReferenceOrder()
			require.NoError(t, o.SetStatus(st))

			o.AddPayment(cash("2419.9758"))

			assert.Equal(t, StatusPaid, o.Status())
			assert.True(t, d("2419.9758").Equal(o.PaidTotal()))
		})
	}
}

func TestAddPayment_PartialPaymentKeepsExternalStatus(t *testing.T) {
	o := newReferenceOrder()
	require.NoError(t, o.SetStatus(StatusCancelled))

	o.AddPayment(cash("1000"))

	assert.Equal(t, StatusCancelled, o.Status())
}

func TestAddPayment_EmptyOrderIsPaidImmediately(t *testing.T) {
	o := NewOrder("o1", nil, orderDate)

	o.AddPayment(cash("0"))

	assert.Equal(t, StatusPaid, o.Status())
}

func TestSetStatus(t *testing.T) {
	o := newReferenceOrder()

	require.NoError(t, o.SetStatus(StatusShipped))
	assert.Equal(t, StatusShipped, o.Status())

	err := o.SetStatus(Status("lost"))
	require.ErrorIs(t, err, ErrUnknownStatus)
	assert.Equal(t, StatusShipped, o.Status())
}

func TestSetStatus_RejectsPaymentDrivenStatuses(t *testing.T) {
	o := newReferenceOrder()
	o.AddPayment(cash("2419.9758"))
	require.Equal(t, StatusPaid, o.Status())

	for _, st := range []Status{StatusPending, StatusPaid} {
		err := o.SetStatus(st)
		require.ErrorIs(t, err, ErrStatusNotSettable, st)
		assert.Equal(t, StatusPaid, o.Status())
	}
}

func TestStatus_Settable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusPaid, false},
		{StatusCancelled, true},
		{StatusShipped, true},
		{StatusDelivered, true},
		{Status("lost"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Settable())
		})
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	o := newReferenceOrder()
	o.AddPayment(cash("1"))

	lines := o.Lines()
	lines[0].Quantity = 100
	_ = append(lines, LineItem{})

	payments := o.Payments()
	payments[0] = cash("9999")

	assert.Equal(t, 2, o.Lines()[0].Quantity)
	assert.Len(t, o.Lines(), 1)
	assert.True(t, d("1").Equal(o.PaidTotal()))
}

func TestRestore(t *testing.T) {
	laptop := newLaptop()
	c := NewCustomer("C1", "Ana", "")
	lines := []LineItem{{Product: laptop, Quantity: 2}}
	payments := []payment.Payment{cash("100")}

	o := Restore("P1", c, orderDate, StatusShipped, lines, payments)

	assert.Equal(t, "P1", o.ID)
	assert.Same(t, c, o.Customer)
	assert.Equal(t, orderDate, o.Date)
	assert.Equal(t, StatusShipped, o.Status())
	assert.True(t, d("2419.9758").Equal(o.CalculateTotal()))
	assert.True(t, d("100").Equal(o.PaidTotal()))

	// Restore copies its inputs.
	lines[0].Quantity = 1
	assert.Equal(t, 2, o.Lines()[0].Quantity)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "paid", "cancelled", "shipped", "delivered"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("PAID")
	require.ErrorIs(t, err, ErrUnknownStatus)
}
