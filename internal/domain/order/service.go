package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

const instrumentationName = "github.com/xenking/kart-orders/internal/domain/order"

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// LineRequest is a requested order line.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// CreateOrderRequest holds the input for creating an order. A zero Date is
// replaced with the current time.
type CreateOrderRequest struct {
	CustomerID string
	Date       time.Time
	Lines      []LineRequest
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the provider used for service spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithMeterProvider sets the provider used for service counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// Service orchestrates the order lifecycle over the repositories: it loads
// entities, applies the domain operation and persists the result.
type Service struct {
	products  product.Repository
	customers CustomerRepository
	orders    Repository
	now       func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer

	paymentsRecorded metric.Int64Counter
	ordersPaid       metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	customers CustomerRepository,
	orders Repository,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		products:       products,
		customers:      customers,
		orders:         orders,
		now:            time.Now,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.paymentsRecorded, err = meter.Int64Counter("orders.payments.recorded",
		metric.WithDescription("Payments applied to orders"),
	); err != nil {
		return nil, errors.Wrap(err, "create payments counter")
	}
	if s.ordersPaid, err = meter.Int64Counter("orders.paid",
		metric.WithDescription("Orders that reached the paid status"),
	); err != nil {
		return nil, errors.Wrap(err, "create paid counter")
	}

	return s, nil
}

// CreateOrder loads the customer and the requested products, builds a
// pending order and persists it. The order is added to the customer's list
// once it has been saved.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder",
		trace.WithAttributes(attribute.String("customer.id", req.CustomerID)),
	)
	defer func() { endSpan(span, rerr) }()

	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get customer")
	}

	ids := make([]string, len(req.Lines))
	for i, l := range req.Lines {
		ids[i] = l.ProductID
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]*product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	date := req.Date
	if date.IsZero() {
		date = s.now()
	}

	o := NewOrder(uuid.New().String(), customer, date)
	for _, l := range req.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
		o.AddLine(p, l.Quantity)
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, errors.Wrap(err, "save order")
	}
	customer.AddOrder(o)

	zctx.From(ctx).Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("customer_id", customer.ID),
		zap.Int("lines", len(req.Lines)),
		zap.Stringer("total", o.CalculateTotal()),
	)
	return o, nil
}

// RecordPayment applies p to the order and persists it. The returned order
// reflects the status after the payment.
func (s *Service) RecordPayment(ctx context.Context, orderID string, p payment.Payment) (_ *Order, rerr error) {
	method := payment.MethodOf(p)
	ctx, span := s.tracer.Start(ctx, "order.RecordPayment",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("payment.method", string(method)),
		),
	)
	defer func() { endSpan(span, rerr) }()

	var before, after Status
	o, err := s.orders.Update(ctx, orderID, func(o *Order) error {
		before = o.Status()
		o.AddPayment(p)
		after = o.Status()
		return nil
	})
	if err != nil {
		return nil, lookupError(err, "update order")
	}

	s.paymentsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(method))))

	lg := zctx.From(ctx).With(zap.String("order_id", o.ID))
	lg.Info("Payment recorded",
		zap.String("method", string(method)),
		zap.Stringer("amount", p.Amount()),
		zap.Stringer("paid", o.PaidTotal()),
		zap.Stringer("total", o.CalculateTotal()),
	)
	if before != StatusPaid && after == StatusPaid {
		s.ordersPaid.Add(ctx, 1)
		lg.Info("Order paid")
	}

	return o, nil
}

// SetStatus assigns a status chosen by an external workflow: cancelled,
// shipped or delivered.
func (s *Service) SetStatus(ctx context.Context, orderID string, status Status) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.SetStatus",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("order.status", string(status)),
		),
	)
	defer func() { endSpan(span, rerr) }()

	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if !status.Settable() {
		return nil, errors.Wrapf(ErrStatusNotSettable, "%q", status)
	}

	var prev Status
	o, err := s.orders.Update(ctx, orderID, func(o *Order) error {
		prev = o.Status()
		return o.SetStatus(status)
	})
	if err != nil {
		return nil, lookupError(err, "update order")
	}

	zctx.From(ctx).Info("Order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
	)
	return o, nil
}

// AdjustStock changes a product's stock by delta. A *product.StockAdjustmentError
// is returned unchanged when the stock would go negative.
func (s *Service) AdjustStock(ctx context.Context, productID string, delta int) (_ *product.Product, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.AdjustStock",
		trace.WithAttributes(
			attribute.String("product.id", productID),
			attribute.Int("stock.delta", delta),
		),
	)
	defer func() { endSpan(span, rerr) }()

	p, err := s.products.Update(ctx, productID, func(p *product.Product) error {
		return p.AdjustStock(delta)
	})
	if err != nil {
		var stockErr *product.StockAdjustmentError
		switch {
		case errors.Is(err, product.ErrNotFound):
			return nil, &ProductNotFoundError{ProductID: productID}
		case errors.As(err, &stockErr):
			return nil, stockErr
		default:
			return nil, errors.Wrap(err, "update product")
		}
	}

	zctx.From(ctx).Debug("Stock adjusted",
		zap.String("product_id", p.ID),
		zap.Int("delta", delta),
		zap.Int("stock", p.Stock()),
	)
	return p, nil
}

// CustomerOrders returns a snapshot of the customer's orders.
func (s *Service) CustomerOrders(ctx context.Context, customerID string) (_ []*Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.CustomerOrders",
		trace.WithAttributes(attribute.String("customer.id", customerID)),
	)
	defer func() { endSpan(span, rerr) }()

	c, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get customer")
	}
	return c.ListOrders(), nil
}

func lookupError(err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return errors.Wrap(err, op)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
