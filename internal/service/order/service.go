package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emporia/internal/command"
	"emporia/internal/domain"
	"emporia/internal/events"
	"emporia/internal/logging"
	"emporia/internal/payment"
	orderrepo "emporia/internal/repository/order"
	productrepo "emporia/internal/repository/product"
)

const dateLayout = "2006-01-02 15:04:05"

// Orders is the order API consumed by the HTTP layer.
type Orders interface {
	PlaceOrder(ctx context.Context, cart *domain.Cart, customerID int64, paymentMethod string) PlaceResult
	CancelOrder(ctx context.Context, orderID, customerID int64) Result
	GetCustomerOrders(ctx context.Context, customerID int64) ([]OrderSummary, error)
	GetOrder(ctx context.Context, orderID, customerID int64) (*OrderSummary, error)
}

var _ Orders = (*Service)(nil)

type Service struct {
	orders    orderStore
	products  productStore
	gateway   payment.Gateway
	publisher events.Publisher
	now       func() time.Time
	lg        *zap.Logger
}

type Option func(*Service)

func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) { s.lg = logging.OrNop(lg) }
}

// WithPublisher sets where order events go. Events are dropped by default.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(orders orderrepo.Repository, products productrepo.Repository, gateway payment.Gateway, opts ...Option) *Service {
	s := &Service{
		orders:    orders,
		products:  products,
		gateway:   gateway,
		publisher: events.Nop{},
		now:       time.Now,
		lg:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceResult is the outcome of PlaceOrder. OrderID is set only on success.
type PlaceResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id,omitempty"`
}

// Result is the outcome of CancelOrder.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type OrderSummary struct {
	OrderID     int64           `json:"order_id"`
	Date        string          `json:"date"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []ItemSummary   `json:"items"`
}

type ItemSummary struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PlaceOrder turns the cart into a paid order. Any failing step undoes the
// steps before it, newest first, and the failure is reported in the result.
func (s *Service) PlaceOrder(ctx context.Context, cart *domain.Cart, customerID int64, paymentMethod string) PlaceResult {
	lg := s.lg.With(zap.Int64("customer_id", customerID))

	o, err := s.place(ctx, cart, customerID, paymentMethod)
	if err != nil {
		lg.Info("order placement failed", zap.Error(err))
		return PlaceResult{Message: "Order placement failed: " + err.Error()}
	}

	lg.Info("order placed", zap.Int64("order_id", o.ID), zap.Stringer("total", o.TotalAmount))
	s.publish(ctx, events.TypeOrderPlaced, o.ID, customerID, domain.OrderStatusPaid, o.TotalAmount)
	return PlaceResult{Success: true, Message: "Order placed successfully", OrderID: o.ID}
}

func (s *Service) place(ctx context.Context, cart *domain.Cart, customerID int64, paymentMethod string) (*domain.Order, error) {
	inv := command.NewInvoker(s.lg)

	var (
		items  []domain.CartItem
		amount decimal.Decimal
	)
	if cart != nil {
		items = cart.Items
		amount = cart.TotalPrice()
	}

	if _, err := inv.ExecuteCommand(ctx, NewValidateOrderCommand(cart, customerID)); err != nil {
		return nil, err
	}

	create := NewCreateOrderCommand(s.orders, customerID, items, amount)
	create.now = s.now
	if _, err := inv.ExecuteCommand(ctx, create); err != nil {
		return nil, err
	}
	o := create.Order()

	inventory := undoOnFailure{NewUpdateInventoryCommand(s.products, items)}
	if _, err := inv.ExecuteCommand(ctx, inventory); err != nil {
		return nil, err
	}

	if _, err := inv.ExecuteCommands(ctx,
		NewProcessPaymentCommand(s.gateway, o, paymentMethod),
		NewUpdateOrderStatusCommand(s.orders, o.ID, domain.OrderStatusPaid),
	); err != nil {
		return nil, err
	}
	return o, nil
}

// undoOnFailure releases the partial decrements of a failed inventory step
// before the invoker compensates the steps that completed earlier.
type undoOnFailure struct {
	*UpdateInventoryCommand
}

func (u undoOnFailure) Execute(ctx context.Context) (any, error) {
	res, err := u.UpdateInventoryCommand.Execute(ctx)
	if err != nil {
		if undoErr := u.Undo(ctx); undoErr != nil {
			return nil, &command.RollbackError{Cause: err, Compensation: undoErr}
		}
		return nil, err
	}
	return res, nil
}

// CancelOrder marks the order cancelled. A zero customerID skips the
// ownership check. Stock and payment are left as they are.
func (s *Service) CancelOrder(ctx context.Context, orderID, customerID int64) Result {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Result{Message: fmt.Sprintf("Order with ID %d not found", orderID)}
		}
		return Result{Message: "Order cancellation failed: " + err.Error()}
	}
	if customerID != 0 && o.CustomerID != customerID {
		return Result{Message: "You do not have permission to cancel this order"}
	}

	inv := command.NewInvoker(s.lg)
	if _, err := inv.ExecuteCommand(ctx, NewUpdateOrderStatusCommand(s.orders, orderID, domain.OrderStatusCancelled)); err != nil {
		s.lg.Info("order cancellation failed", zap.Int64("order_id", orderID), zap.Error(err))
		return Result{Message: "Order cancellation failed: " + err.Error()}
	}

	s.lg.Info("order cancelled", zap.Int64("order_id", orderID))
	s.publish(ctx, events.TypeOrderCancelled, orderID, o.CustomerID, domain.OrderStatusCancelled, o.TotalAmount)
	return Result{Success: true, Message: "Order cancelled successfully"}
}

// GetCustomerOrders lists the customer's orders, newest first.
func (s *Service) GetCustomerOrders(ctx context.Context, customerID int64) ([]OrderSummary, error) {
	orders, err := s.orders.GetOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, summarize(o))
	}
	return out, nil
}

// GetOrder returns nil when the order is missing or belongs to another
// customer. A zero customerID skips the ownership check.
func (s *Service) GetOrder(ctx context.Context, orderID, customerID int64) (*OrderSummary, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get order %d", orderID)
	}
	if customerID != 0 && o.CustomerID != customerID {
		return nil, nil
	}
	sum := summarize(*o)
	return &sum, nil
}

func (s *Service) publish(ctx context.Context, typ string, orderID, customerID int64, status domain.OrderStatus, total decimal.Decimal) {
	err := s.publisher.Publish(ctx, events.OrderEvent{
		Type:        typ,
		OrderID:     orderID,
		CustomerID:  customerID,
		Status:      string(status),
		TotalAmount: total,
		OccurredAt:  s.now().UTC(),
	})
	if err != nil {
		s.lg.Warn("publish order event", zap.String("type", typ), zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func summarize(o domain.Order) OrderSummary {
	items := make([]ItemSummary, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemSummary{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}
	return OrderSummary{
		OrderID:     o.ID,
		Date:        o.OrderDate.Format(dateLayout),
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Items:       items,
	}
}
