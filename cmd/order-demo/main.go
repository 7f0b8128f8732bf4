// Command order-demo places the configured demo order and records its
// payments, logging the order status after every step.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	orders "github.com/xenking/kart-orders/internal/app"
)

func main() {
	app.Run(run)
}

func run(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
	cfg, err := orders.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	lg.Info("Starting order demo",
		zap.String("customer_id", cfg.Demo.CustomerID),
		zap.String("product_id", cfg.Demo.ProductID),
		zap.Int("quantity", cfg.Demo.Quantity),
		zap.Strings("payments", cfg.Demo.Payments),
	)
	if err := orders.Run(ctx, lg, m, cfg); err != nil {
		return errors.Wrap(err, "order demo")
	}
	lg.Info("Order demo finished")
	return nil
}
