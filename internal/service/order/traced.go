package order

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"emporia/internal/domain"
)

const tracerName = "emporia/internal/service/order"

type outcomeRecorder interface {
	ObserveOrder(operation string, success bool)
}

// Traced wraps Orders with a span per call and counts place and cancel
// outcomes.
type Traced struct {
	inner   Orders
	tracer  trace.Tracer
	metrics outcomeRecorder
}

var _ Orders = (*Traced)(nil)

// NewTraced decorates inner. A nil provider disables spans and a nil
// recorder disables counting.
func NewTraced(inner Orders, tp trace.TracerProvider, metrics outcomeRecorder) *Traced {
	if tp == nil {
		tp = nooptrace.NewTracerProvider()
	}
	return &Traced{inner: inner, tracer: tp.Tracer(tracerName), metrics: metrics}
}

func (t *Traced) PlaceOrder(ctx context.Context, cart *domain.Cart, customerID int64, paymentMethod string) PlaceResult {
	attrs := []attribute.KeyValue{
		attribute.Int64("customer.id", customerID),
		attribute.String("payment.method", paymentMethod),
	}
	if cart != nil {
		attrs = append(attrs, attribute.Int64("cart.id", cart.ID), attribute.Int("cart.items", len(cart.Items)))
	}
	ctx, span := t.tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(attrs...))
	defer span.End()

	res := t.inner.PlaceOrder(ctx, cart, customerID, paymentMethod)
	if res.Success {
		span.SetAttributes(attribute.Int64("order.id", res.OrderID))
	} else {
		span.SetStatus(codes.Error, res.Message)
	}
	t.observe("place", res.Success)
	return res
}

func (t *Traced) CancelOrder(ctx context.Context, orderID, customerID int64) Result {
	ctx, span := t.tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("customer.id", customerID),
	))
	defer span.End()

	res := t.inner.CancelOrder(ctx, orderID, customerID)
	if !res.Success {
		span.SetStatus(codes.Error, res.Message)
	}
	t.observe("cancel", res.Success)
	return res
}

func (t *Traced) GetCustomerOrders(ctx context.Context, customerID int64) ([]OrderSummary, error) {
	ctx, span := t.tracer.Start(ctx, "OrderService.GetCustomerOrders",
		trace.WithAttributes(attribute.Int64("customer.id", customerID)))
	defer span.End()

	out, err := t.inner.GetCustomerOrders(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("orders.count", len(out)))
	return out, nil
}

func (t *Traced) GetOrder(ctx context.Context, orderID, customerID int64) (*OrderSummary, error) {
	ctx, span := t.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("customer.id", customerID),
	))
	defer span.End()

	out, err := t.inner.GetOrder(ctx, orderID, customerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (t *Traced) observe(op string, success bool) {
	if t.metrics != nil {
		t.metrics.ObserveOrder(op, success)
	}
}
