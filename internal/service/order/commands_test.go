package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"emporia/internal/domain"
)

func TestValidateOrderCommand(t *testing.T) {
	ctx := context.Background()

	cmd := NewValidateOrderCommand(cartOf(domain.CartItem{Product: widget(3), Quantity: 3}), customerID)
	res, err := cmd.Execute(ctx)
	require.NoError(t, err)
	require.Equal(t, true, res)
	require.True(t, cmd.Valid())
	require.NoError(t, cmd.Undo(ctx))
	require.False(t, cmd.Valid())

	// Stock is checked before the customer.
	cmd = NewValidateOrderCommand(cartOf(domain.CartItem{Product: widget(1), Quantity: 3}), 0)
	_, err = cmd.Execute(ctx)
	var stock *domain.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	require.Equal(t, int64(1), stock.ProductID)
	require.False(t, cmd.Valid())

	// Quantity is checked per line, before that line's stock.
	cmd = NewValidateOrderCommand(cartOf(
		domain.CartItem{Product: widget(5), Quantity: -3},
		domain.CartItem{Product: gadget(0), Quantity: 1},
	), customerID)
	_, err = cmd.Execute(ctx)
	var invalid *domain.ValidationError
	require.ErrorAs(t, err, &invalid)
	require.EqualError(t, err, "invalid quantity for product: Widget")
	require.False(t, cmd.Valid())
}

func TestCreateOrderCommand(t *testing.T) {
	ctx := context.Background()
	orders := newMemOrders()
	cmd := NewCreateOrderCommand(orders, customerID, []domain.CartItem{{Product: widget(5), Quantity: 2}}, decimal.NewFromInt(20))

	require.NoError(t, cmd.Undo(ctx), "undo before execute is a no-op")

	_, err := cmd.Execute(ctx)
	require.NoError(t, err)
	require.NotNil(t, cmd.Order())
	require.Equal(t, domain.OrderStatusPending, cmd.Order().Status)
	require.Equal(t, 1, orders.count())

	require.NoError(t, cmd.Undo(ctx))
	require.Nil(t, cmd.Order())
	require.Zero(t, orders.count())
}

func TestCreateOrderCommand_UndoReportsDeleteError(t *testing.T) {
	ctx := context.Background()
	orders := newMemOrders()
	cmd := NewCreateOrderCommand(orders, customerID, []domain.CartItem{{Product: widget(5), Quantity: 1}}, decimal.NewFromInt(10))
	_, err := cmd.Execute(ctx)
	require.NoError(t, err)

	orders.failDelete = errors.New("locked")
	require.ErrorContains(t, cmd.Undo(ctx), "locked")
}

func TestUpdateInventoryCommand_PartialFailureNeedsUndo(t *testing.T) {
	ctx := context.Background()
	products := newMemProducts(widget(5), gadget(1))
	cmd := NewUpdateInventoryCommand(products, []domain.CartItem{
		{Product: widget(5), Quantity: 2},
		{Product: gadget(1), Quantity: 2},
	})

	_, err := cmd.Execute(ctx)
	var stock *domain.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	require.Equal(t, "Gadget", stock.Name)

	// Execute does not restore what it already persisted.
	require.Equal(t, 3, products.stock(1))
	require.Equal(t, 1, products.stock(2))

	require.NoError(t, cmd.Undo(ctx))
	require.Equal(t, 5, products.stock(1))
	require.Equal(t, 1, products.stock(2))
}

func TestUpdateInventoryCommand_RepeatedProductRecordsFirstStock(t *testing.T) {
	ctx := context.Background()
	products := newMemProducts(widget(5))
	cmd := NewUpdateInventoryCommand(products, []domain.CartItem{
		{Product: widget(5), Quantity: 1},
		{Product: widget(5), Quantity: 2},
	})

	_, err := cmd.Execute(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, products.stock(1))

	require.NoError(t, cmd.Undo(ctx))
	require.Equal(t, 5, products.stock(1))
}

func TestUpdateInventoryCommand_UndoKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	products := newMemProducts(widget(5))
	cmd := NewUpdateInventoryCommand(products, []domain.CartItem{{Product: widget(5), Quantity: 2}})
	_, err := cmd.Execute(ctx)
	require.NoError(t, err)

	p, err := products.GetByID(ctx, 1)
	require.NoError(t, err)
	p.Price = decimal.NewFromInt(12)
	_, err = products.Update(ctx, *p)
	require.NoError(t, err)

	require.NoError(t, cmd.Undo(ctx))
	p, err = products.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 5, p.Stock)
	require.True(t, p.Price.Equal(decimal.NewFromInt(12)))
}

func TestUpdateInventoryCommand_MissingProduct(t *testing.T) {
	cmd := NewUpdateInventoryCommand(newMemProducts(), []domain.CartItem{{Product: widget(5), Quantity: 1}})
	_, err := cmd.Execute(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.EqualError(t, err, "product with ID 1 not found")
}

func TestProcessPaymentCommand(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{}
	o := &domain.Order{ID: 3, TotalAmount: decimal.NewFromInt(20)}
	cmd := NewProcessPaymentCommand(gw, o, "card")

	_, err := cmd.Execute(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cmd.PaymentID())

	require.NoError(t, cmd.Undo(ctx))
	require.Empty(t, cmd.PaymentID())
	require.Len(t, gw.refunded, 1)

	require.NoError(t, cmd.Undo(ctx), "second undo has nothing to refund")
	require.Len(t, gw.refunded, 1)
}

func TestProcessPaymentCommand_Declined(t *testing.T) {
	cmd := NewProcessPaymentCommand(&stubGateway{decline: "card expired"}, &domain.Order{ID: 3}, "card")
	_, err := cmd.Execute(context.Background())
	var declined *domain.PaymentDeclinedError
	require.ErrorAs(t, err, &declined)
	require.EqualError(t, err, "payment failed: card expired")
	require.NoError(t, cmd.Undo(context.Background()))
}

func TestProcessPaymentCommand_RefundRefused(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{refuseRefund: true}
	cmd := NewProcessPaymentCommand(gw, &domain.Order{ID: 3, TotalAmount: decimal.NewFromInt(1)}, "card")
	_, err := cmd.Execute(ctx)
	require.NoError(t, err)
	require.ErrorContains(t, cmd.Undo(ctx), "refund of payment")
}

func TestUpdateOrderStatusCommand(t *testing.T) {
	ctx := context.Background()
	orders := newMemOrders()
	created, err := orders.CreateOrder(ctx, domain.Order{CustomerID: customerID, Status: domain.OrderStatusPending})
	require.NoError(t, err)

	cmd := NewUpdateOrderStatusCommand(orders, created.ID, domain.OrderStatusPaid)
	_, err = cmd.Execute(ctx)
	require.NoError(t, err)
	got, _ := orders.GetByID(ctx, created.ID)
	require.Equal(t, domain.OrderStatusPaid, got.Status)

	require.NoError(t, cmd.Undo(ctx))
	got, _ = orders.GetByID(ctx, created.ID)
	require.Equal(t, domain.OrderStatusPending, got.Status)
}

func TestUpdateOrderStatusCommand_NotFound(t *testing.T) {
	cmd := NewUpdateOrderStatusCommand(newMemOrders(), 42, domain.OrderStatusPaid)
	_, err := cmd.Execute(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.EqualError(t, err, "order with ID 42 not found")
	require.NoError(t, cmd.Undo(context.Background()))
}
