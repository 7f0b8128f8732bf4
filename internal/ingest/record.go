// Package ingest imports product catalog records from gzip-compressed
// JSON-lines files.
package ingest

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/product"
)

// Record is one catalog line:
//
//	{"id":"p1","name":"Laptop","description":"...","price":"999.99","tax_rate":0.21,"stock":10}
//
// Prices and tax rates may be JSON numbers or numeric strings.
type Record struct {
	ID          string `validate:"required,max=128"`
	Name        string `validate:"required"`
	Description string
	Price       decimal.Decimal
	TaxRate     decimal.Decimal
	Stock       int `validate:"gte=0"`
}

// Product converts the record into a catalog entity.
func (r Record) Product() *product.Product {
	return product.NewProduct(r.ID, r.Name, r.Description, r.Price, r.TaxRate, r.Stock)
}

// DecodeRecord parses a single JSON object. Unknown keys are ignored.
func DecodeRecord(line []byte) (Record, error) {
	var r Record
	err := jx.DecodeBytes(line).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			r.ID, err = d.Str()
		case "name":
			r.Name, err = d.Str()
		case "description":
			r.Description, err = d.Str()
		case "price":
			r.Price, err = decodeDecimal(d)
		case "tax_rate":
			r.TaxRate, err = decodeDecimal(d)
		case "stock":
			r.Stock, err = d.Int()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return Record{}, errors.Wrap(err, "decode record")
	}
	return r, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(strings.Trim(n.String(), `"`))
}

// NewValidator returns a validator with the record rules registered.
func NewValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(recordStructValidation, Record{})
	return v
}

// recordStructValidation checks the decimal fields, which the tag rules
// cannot compare exactly.
func recordStructValidation(sl validatorv10.StructLevel) {
	r := sl.Current().Interface().(Record)

	if r.Price.IsNegative() {
		sl.ReportError(r.Price, "price", "Price", "price_non_negative", r.Price.String())
	}
	if r.TaxRate.IsNegative() {
		sl.ReportError(r.TaxRate, "tax_rate", "TaxRate", "tax_rate_non_negative", r.TaxRate.String())
	}
}
