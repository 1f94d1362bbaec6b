package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"emporia/internal/command"
	"emporia/internal/domain"
	"emporia/internal/payment"
)

type orderStore interface {
	CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateOrder(ctx context.Context, o domain.Order) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	GetOrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
}

type productStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
}

var (
	_ command.Command = (*ValidateOrderCommand)(nil)
	_ command.Command = (*CreateOrderCommand)(nil)
	_ command.Command = (*UpdateInventoryCommand)(nil)
	_ command.Command = (*ProcessPaymentCommand)(nil)
	_ command.Command = (*UpdateOrderStatusCommand)(nil)
)

// ValidateOrderCommand checks that the cart can be ordered by the customer.
type ValidateOrderCommand struct {
	cart       *domain.Cart
	customerID int64
	valid      bool
}

func NewValidateOrderCommand(cart *domain.Cart, customerID int64) *ValidateOrderCommand {
	return &ValidateOrderCommand{cart: cart, customerID: customerID}
}

func (c *ValidateOrderCommand) Name() string { return "validate_order" }

// Execute checks, in order: the cart has items, every item has a positive
// quantity that is in stock, and the customer is set.
func (c *ValidateOrderCommand) Execute(context.Context) (any, error) {
	if c.cart == nil || len(c.cart.Items) == 0 {
		return nil, domain.Invalid("shopping cart is empty")
	}
	for _, item := range c.cart.Items {
		if item.Quantity <= 0 {
			return nil, domain.Invalid("invalid quantity for product: %s", item.Product.Name)
		}
		if item.Product.Stock < item.Quantity {
			return nil, &domain.InsufficientStockError{ProductID: item.Product.ID, Name: item.Product.Name}
		}
	}
	if c.customerID <= 0 {
		return nil, domain.Invalid("invalid customer")
	}
	c.valid = true
	return true, nil
}

func (c *ValidateOrderCommand) Undo(context.Context) error {
	c.valid = false
	return nil
}

// Valid reports whether the last Execute succeeded and was not undone.
func (c *ValidateOrderCommand) Valid() bool { return c.valid }

// CreateOrderCommand persists a pending order for the cart items.
type CreateOrderCommand struct {
	repo       orderStore
	customerID int64
	items      []domain.CartItem
	amount     decimal.Decimal
	now        func() time.Time
	order      *domain.Order
}

func NewCreateOrderCommand(repo orderStore, customerID int64, items []domain.CartItem, amount decimal.Decimal) *CreateOrderCommand {
	return &CreateOrderCommand{repo: repo, customerID: customerID, items: items, amount: amount, now: time.Now}
}

func (c *CreateOrderCommand) Name() string { return "create_order" }

func (c *CreateOrderCommand) Execute(ctx context.Context) (any, error) {
	items := make([]domain.OrderItem, 0, len(c.items))
	for _, it := range c.items {
		items = append(items, domain.OrderItem{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
		})
	}
	created, err := c.repo.CreateOrder(ctx, domain.Order{
		CustomerID:  c.customerID,
		Items:       items,
		TotalAmount: c.amount,
		Status:      domain.OrderStatusPending,
		OrderDate:   c.now().UTC(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	c.order = created
	return created, nil
}

// Undo deletes the created order, if any.
func (c *CreateOrderCommand) Undo(ctx context.Context) error {
	if c.order == nil || c.order.ID == 0 {
		return nil
	}
	if err := c.repo.DeleteOrder(ctx, c.order.ID); err != nil {
		return errors.Wrapf(err, "delete order %d", c.order.ID)
	}
	c.order = nil
	return nil
}

// Order returns the created order, or nil.
func (c *CreateOrderCommand) Order() *domain.Order { return c.order }

// UpdateInventoryCommand decrements stock for every item. Items decremented
// before a failing item stay decremented until Undo runs.
type UpdateInventoryCommand struct {
	repo          productStore
	items         []domain.CartItem
	originalStock map[int64]int
	touched       []int64
}

func NewUpdateInventoryCommand(repo productStore, items []domain.CartItem) *UpdateInventoryCommand {
	return &UpdateInventoryCommand{repo: repo, items: items, originalStock: make(map[int64]int)}
}

func (c *UpdateInventoryCommand) Name() string { return "update_inventory" }

func (c *UpdateInventoryCommand) Execute(ctx context.Context) (any, error) {
	for _, item := range c.items {
		product, err := c.repo.GetByID(ctx, item.Product.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NotFound("product with ID %d not found", item.Product.ID)
			}
			return nil, errors.Wrapf(err, "load product %d", item.Product.ID)
		}
		if _, seen := c.originalStock[product.ID]; !seen {
			c.originalStock[product.ID] = product.Stock
			c.touched = append(c.touched, product.ID)
		}

		newStock := product.Stock - item.Quantity
		if newStock < 0 {
			return nil, &domain.InsufficientStockError{ProductID: product.ID, Name: product.Name}
		}
		product.Stock = newStock
		if _, err := c.repo.Update(ctx, *product); err != nil {
			return nil, errors.Wrapf(err, "update stock of product %d", product.ID)
		}
	}
	return true, nil
}

// Undo writes back the recorded stock of every product Execute touched,
// re-reading each product so other fields keep their current values.
func (c *UpdateInventoryCommand) Undo(ctx context.Context) error {
	var firstErr error
	for _, id := range c.touched {
		product, err := c.repo.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err == nil {
			product.Stock = c.originalStock[id]
			_, err = c.repo.Update(ctx, *product)
		}
		if err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "restore stock of product %d", id)
		}
	}
	c.originalStock = make(map[int64]int)
	c.touched = nil
	return firstErr
}

// ProcessPaymentCommand charges the order total.
type ProcessPaymentCommand struct {
	gateway   payment.Gateway
	order     *domain.Order
	method    string
	paymentID string
}

func NewProcessPaymentCommand(gateway payment.Gateway, order *domain.Order, method string) *ProcessPaymentCommand {
	return &ProcessPaymentCommand{gateway: gateway, order: order, method: method}
}

func (c *ProcessPaymentCommand) Name() string { return "process_payment" }

func (c *ProcessPaymentCommand) Execute(ctx context.Context) (any, error) {
	res, err := c.gateway.ProcessPayment(ctx, c.order.TotalAmount, c.method, c.order.ID)
	if err != nil {
		return nil, errors.Wrap(err, "process payment")
	}
	if !res.Success {
		return nil, &domain.PaymentDeclinedError{Reason: res.ErrorMessage}
	}
	c.paymentID = res.PaymentID
	return res, nil
}

// Undo refunds the recorded payment, if any.
func (c *ProcessPaymentCommand) Undo(ctx context.Context) error {
	if c.paymentID == "" {
		return nil
	}
	id := c.paymentID
	c.paymentID = ""
	if !c.gateway.RefundPayment(ctx, id) {
		return errors.Errorf("refund of payment %s failed", id)
	}
	return nil
}

// PaymentID returns the captured payment id, or "".
func (c *ProcessPaymentCommand) PaymentID() string { return c.paymentID }

// UpdateOrderStatusCommand moves an order to a new status.
type UpdateOrderStatusCommand struct {
	repo           orderStore
	orderID        int64
	newStatus      domain.OrderStatus
	previousStatus domain.OrderStatus
}

func NewUpdateOrderStatusCommand(repo orderStore, orderID int64, status domain.OrderStatus) *UpdateOrderStatusCommand {
	return &UpdateOrderStatusCommand{repo: repo, orderID: orderID, newStatus: status}
}

func (c *UpdateOrderStatusCommand) Name() string { return "update_order_status" }

func (c *UpdateOrderStatusCommand) Execute(ctx context.Context) (any, error) {
	o, err := c.repo.GetByID(ctx, c.orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("order with ID %d not found", c.orderID)
		}
		return nil, errors.Wrapf(err, "load order %d", c.orderID)
	}
	c.previousStatus = o.Status
	o.Status = c.newStatus
	if _, err := c.repo.UpdateOrder(ctx, *o); err != nil {
		return nil, errors.Wrapf(err, "update order %d", c.orderID)
	}
	return true, nil
}

// Undo restores the status recorded by Execute.
func (c *UpdateOrderStatusCommand) Undo(ctx context.Context) error {
	if c.previousStatus == "" {
		return nil
	}
	o, err := c.repo.GetByID(ctx, c.orderID)
	if errors.Is(err, domain.ErrNotFound) {
		c.previousStatus = ""
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "load order %d", c.orderID)
	}
	o.Status = c.previousStatus
	if _, err := c.repo.UpdateOrder(ctx, *o); err != nil {
		return errors.Wrapf(err, "restore status of order %d", c.orderID)
	}
	c.previousStatus = ""
	return nil
}
