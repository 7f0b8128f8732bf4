// Package payment defines the instruments an order can be paid with.
//
// Payment is a closed set: Card, Cash and Check are its only implementations.
// Every variant exposes an amount and a date; the variant-specific fields are
// informational and play no part in order accounting.
package payment

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Method identifies the payment variant.
type Method string

const (
	MethodCard  Method = "card"
	MethodCash  Method = "cash"
	MethodCheck Method = "check"
)

// ErrUnknownMethod is returned when a stored method name matches no variant.
var ErrUnknownMethod = errors.New("unknown payment method")

// Payment is implemented by Card, Cash and Check only.
type Payment interface {
	Amount() decimal.Decimal
	Date() time.Time

	payment()
}

type base struct {
	amount decimal.Decimal
	date   time.Time
}

func (b base) Amount() decimal.Decimal { return b.amount }
func (b base) Date() time.Time         { return b.date }
func (base) payment()                  {}

// Card is a payment made with a bank card.
type Card struct {
	base
	Number  string
	Expiry  time.Time
	Network string
}

// NewCard creates a card payment.
func NewCard(amount decimal.Decimal, date time.Time, number string, expiry time.Time, network string) Card {
	return Card{
		base:    base{amount: amount, date: date},
		Number:  number,
		Expiry:  expiry,
		Network: network,
	}
}

// Cash is a payment made in cash in the given ISO currency.
type Cash struct {
	base
	Currency string
}

// NewCash creates a cash payment.
func NewCash(amount decimal.Decimal, date time.Time, currency string) Cash {
	return Cash{
		base:     base{amount: amount, date: date},
		Currency: currency,
	}
}

// Check is a payment made by bank check.
type Check struct {
	base
	Bank   string
	Holder string
}

// NewCheck creates a check payment.
func NewCheck(amount decimal.Decimal, date time.Time, bank, holder string) Check {
	return Check{
		base:   base{amount: amount, date: date},
		Bank:   bank,
		Holder: holder,
	}
}

// MethodOf reports the variant of p.
func MethodOf(p Payment) Method {
	switch p.(type) {
	case Card, *Card:
		return MethodCard
	case Cash, *Cash:
		return MethodCash
	case Check, *Check:
		return MethodCheck
	default:
		// Unreachable: Payment cannot be implemented outside this package.
		panic(errors.Errorf("unexpected payment type %T", p))
	}
}

// ParseMethod converts a stored method name back to a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodCard, MethodCash, MethodCheck:
		return m, nil
	default:
		return "", errors.Wrapf(ErrUnknownMethod, "%q", s)
	}
}

// Total sums the amounts of payments in order.
func Total(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount())
	}
	return total
}
