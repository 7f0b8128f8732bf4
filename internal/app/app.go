package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
	"github.com/xenking/kart-orders/internal/storage/memory"
	"github.com/xenking/kart-orders/internal/storage/postgres"
)

// Stores groups the repositories the order service runs on.
type Stores struct {
	Products  product.Repository
	Customers order.CustomerRepository
	Orders    order.Repository
}

// MemoryStores returns empty in-memory repositories.
func MemoryStores() Stores {
	return Stores{
		Products:  memory.NewProductStore(),
		Customers: memory.NewCustomerStore(),
		Orders:    memory.NewOrderStore(),
	}
}

// Run creates all dependencies and replays the demo order. It is the single
// wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	ctx = zctx.Base(ctx, lg)

	sc, err := cfg.Demo.Scenario()
	if err != nil {
		return errors.Wrap(err, "demo config")
	}

	stores := MemoryStores()
	if cfg.DatabaseURL != "" {
		lg.Info("Using PostgreSQL storage")

		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		stores = Stores{
			Products:  postgres.NewProductRepository(pool),
			Customers: postgres.NewCustomerRepository(pool),
			Orders:    postgres.NewOrderRepository(pool),
		}
	} else {
		lg.Info("Using in-memory storage")
	}

	svc, err := order.NewService(stores.Products, stores.Customers, stores.Orders,
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	_, err = Demo(ctx, svc, stores, sc, time.Now())
	return err
}

// Demo seeds the product and the customer, places the order, then records
// the scenario payments one by one. It returns the order as last persisted.
func Demo(ctx context.Context, svc *order.Service, stores Stores, sc Scenario, now time.Time) (*order.Order, error) {
	lg := zctx.From(ctx)

	p := product.NewProduct(sc.ProductID, sc.ProductName, sc.ProductDescription, sc.Price, sc.TaxRate, sc.Stock)
	if err := stores.Products.Save(ctx, p); err != nil {
		return nil, errors.Wrap(err, "seed product")
	}
	c := order.NewCustomer(sc.CustomerID, sc.CustomerName, sc.CustomerAddress)
	if err := stores.Customers.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "seed customer")
	}

	o, err := svc.CreateOrder(ctx, order.CreateOrderRequest{
		CustomerID: c.ID,
		Date:       now,
		Lines:      []order.LineRequest{{ProductID: p.ID, Quantity: sc.Quantity}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	lg.Info("Order total",
		zap.String("order_id", o.ID),
		zap.Stringer("total", o.CalculateTotal()),
		zap.String("status", string(o.Status())),
	)

	for _, req := range sc.Payments {
		o, err = svc.RecordPayment(ctx, o.ID, newPayment(req, c, now))
		if err != nil {
			return nil, errors.Wrapf(err, "record %s payment", req.Method)
		}
		lg.Info("Order status",
			zap.String("order_id", o.ID),
			zap.Stringer("paid", o.PaidTotal()),
			zap.String("status", string(o.Status())),
		)
	}
	return o, nil
}

func newPayment(req PaymentRequest, c *order.Customer, now time.Time) payment.Payment {
	switch req.Method {
	case payment.MethodCard:
		return payment.NewCard(req.Amount, now, "4111111111111111", now.AddDate(2, 0, 0), "VISA")
	case payment.MethodCash:
		return payment.NewCash(req.Amount, now, "EUR")
	default:
		return payment.NewCheck(req.Amount, now, "Banco Central", c.Name)
	}
}
