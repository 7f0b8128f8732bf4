package app

import (
	"os"
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/payment"
)

// Config holds the complete application configuration, loadable from
// environment variables (ORDERS_ prefix), flags, or YAML config files.
type Config struct {
	DatabaseURL string `usage:"PostgreSQL connection URL (ORDERS_DATABASE_URL or DATABASE_URL); empty keeps everything in memory" flag:"database-url"`
	Demo        DemoConfig
}

// DemoConfig describes the order placed by the demo run.
type DemoConfig struct {
	ProductID          string   `default:"qclvbQs69hhaCmImXBlFOw==" usage:"Product identifier"`
	ProductName        string   `default:"Laptop" usage:"Product name"`
	ProductDescription string   `default:"15 inch laptop" usage:"Product description"`
	Price              string   `default:"999.99" usage:"Unit price before tax"`
	TaxRate            string   `default:"0.21" usage:"Tax rate as a fraction (0.21 is 21%)"`
	Stock              int      `default:"10" usage:"Initial stock"`
	Quantity           int      `default:"2" usage:"Units ordered"`
	CustomerID         string   `default:"C1" usage:"Customer identifier"`
	CustomerName       string   `default:"Ana" usage:"Customer name"`
	CustomerAddress    string   `default:"Calle Principal 123" usage:"Customer address"`
	Payments           []string `default:"card:1000,check:1419.9758" usage:"Payments to record as method:amount"`
}

// PaymentRequest is a parsed entry of DemoConfig.Payments.
type PaymentRequest struct {
	Method payment.Method
	Amount decimal.Decimal
}

// Scenario is the validated, typed form of DemoConfig.
type Scenario struct {
	ProductID          string
	ProductName        string
	ProductDescription string
	Price              decimal.Decimal
	TaxRate            decimal.Decimal
	Stock              int
	Quantity           int
	CustomerID         string
	CustomerName       string
	CustomerAddress    string
	Payments           []PaymentRequest
}

// Scenario parses the decimal and payment fields.
func (c DemoConfig) Scenario() (Scenario, error) {
	price, err := decimal.NewFromString(c.Price)
	if err != nil {
		return Scenario{}, errors.Wrapf(err, "parse price %q", c.Price)
	}
	taxRate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return Scenario{}, errors.Wrapf(err, "parse tax rate %q", c.TaxRate)
	}

	payments := make([]PaymentRequest, 0, len(c.Payments))
	for _, raw := range c.Payments {
		p, err := parsePaymentRequest(raw)
		if err != nil {
			return Scenario{}, err
		}
		payments = append(payments, p)
	}

	return Scenario{
		ProductID:          c.ProductID,
		ProductName:        c.ProductName,
		ProductDescription: c.ProductDescription,
		Price:              price,
		TaxRate:            taxRate,
		Stock:              c.Stock,
		Quantity:           c.Quantity,
		CustomerID:         c.CustomerID,
		CustomerName:       c.CustomerName,
		CustomerAddress:    c.CustomerAddress,
		Payments:           payments,
	}, nil
}

func parsePaymentRequest(raw string) (PaymentRequest, error) {
	method, amount, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return PaymentRequest{}, errors.Errorf("payment %q: want method:amount", raw)
	}
	m, err := payment.ParseMethod(method)
	if err != nil {
		return PaymentRequest{}, errors.Wrapf(err, "payment %q", raw)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return PaymentRequest{}, errors.Wrapf(err, "payment %q", raw)
	}
	return PaymentRequest{Method: m, Amount: a}, nil
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "ORDERS",
		Files:     []string{"config.yaml", "/etc/orders/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if _, err := cfg.Demo.Scenario(); err != nil {
		return nil, errors.Wrap(err, "demo config")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the platform-provided DATABASE_URL to the
// ORDERS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
}
