package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"emporia/internal/domain"
	"emporia/internal/events"
	"emporia/internal/payment"
)

const customerID int64 = 7

func widget(stock int) domain.Product {
	return domain.Product{ID: 1, SellerID: 2, Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: stock}
}

func gadget(stock int) domain.Product {
	return domain.Product{ID: 2, SellerID: 2, Name: "Gadget", Price: decimal.RequireFromString("4.50"), Stock: stock}
}

func cartOf(items ...domain.CartItem) *domain.Cart {
	return &domain.Cart{ID: 11, CustomerID: customerID, Items: items}
}

type recordingPublisher struct {
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	orders   *memOrders
	products *memProducts
	pub      *recordingPublisher
	svc      *Service
}

func newFixture(t *testing.T, gw payment.Gateway, products ...domain.Product) *fixture {
	t.Helper()
	if gw == nil {
		gw = payment.NewSimulated(nil, "blocked")
	}
	f := &fixture{
		orders:   newMemOrders(),
		products: newMemProducts(products...),
		pub:      &recordingPublisher{},
	}
	f.svc = New(f.orders, f.products, gw, WithPublisher(f.pub))
	return f
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t, nil, widget(5))
	cart := cartOf(domain.CartItem{Product: widget(5), Quantity: 2})

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "card")

	require.True(t, res.Success, res.Message)
	require.Equal(t, "Order placed successfully", res.Message)
	require.NotZero(t, res.OrderID)
	require.Equal(t, 3, f.products.stock(1))

	o, err := f.orders.GetByID(context.Background(), res.OrderID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, o.Status)
	require.Equal(t, customerID, o.CustomerID)
	require.True(t, o.TotalAmount.Equal(decimal.RequireFromString("20")))
	require.Len(t, o.Items, 1)
	require.Equal(t, "Widget", o.Items[0].Name)

	require.Len(t, f.pub.events, 1)
	require.Equal(t, events.TypeOrderPlaced, f.pub.events[0].Type)
	require.Equal(t, res.OrderID, f.pub.events[0].OrderID)
	require.Equal(t, "paid", f.pub.events[0].Status)
}

func TestPlaceOrder_InsufficientStockInCart(t *testing.T) {
	f := newFixture(t, nil, widget(1))
	cart := cartOf(domain.CartItem{Product: widget(1), Quantity: 2})

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "card")

	require.False(t, res.Success)
	require.Equal(t, "Order placement failed: insufficient stock for product: Widget", res.Message)
	require.Zero(t, res.OrderID)
	require.Zero(t, f.orders.count())
	require.Equal(t, 1, f.products.stock(1))
	require.Zero(t, f.products.updates)
	require.Empty(t, f.pub.events)
}

func TestPlaceOrder_StockChangedSinceCartLoaded(t *testing.T) {
	// The cart snapshot still shows enough stock for the gadget, the store does not.
	f := newFixture(t, nil, widget(5), gadget(1))
	cart := cartOf(
		domain.CartItem{Product: widget(5), Quantity: 2},
		domain.CartItem{Product: gadget(5), Quantity: 3},
	)

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "card")

	require.False(t, res.Success)
	require.Equal(t, "Order placement failed: insufficient stock for product: Gadget", res.Message)
	require.Zero(t, f.orders.count())
	require.Equal(t, 5, f.products.stock(1))
	require.Equal(t, 1, f.products.stock(2))
}

func TestPlaceOrder_InventoryFailureRestoresStockBeforeDeletingOrder(t *testing.T) {
	f := newFixture(t, nil, widget(5), gadget(1))
	j := &journal{}
	f.orders.journal = j
	f.products.journal = j
	cart := cartOf(
		domain.CartItem{Product: widget(5), Quantity: 2},
		domain.CartItem{Product: gadget(5), Quantity: 3},
	)

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "card")

	require.False(t, res.Success)
	require.Equal(t, []string{
		"stock 1=3",
		"stock 1=5",
		"stock 2=1",
		"delete order 1",
	}, j.entries)
}

func TestPlaceOrder_PaymentDeclined(t *testing.T) {
	f := newFixture(t, nil, widget(5))
	cart := cartOf(domain.CartItem{Product: widget(5), Quantity: 2})

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "blocked")

	require.False(t, res.Success)
	require.Equal(t, `Order placement failed: payment failed: payment method "blocked" declined`, res.Message)
	require.Zero(t, f.orders.count())
	require.Equal(t, 5, f.products.stock(1))
}

func TestPlaceOrder_MissingPaymentMethod(t *testing.T) {
	f := newFixture(t, nil, widget(5))
	cart := cartOf(domain.CartItem{Product: widget(5), Quantity: 1})

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "")

	require.False(t, res.Success)
	require.Equal(t, "Order placement failed: payment failed: payment method required", res.Message)
	require.Zero(t, f.orders.count())
	require.Equal(t, 5, f.products.stock(1))
}

func TestPlaceOrder_ValidationFailures(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cart     *domain.Cart
		customer int64
		want     string
	}{
		{name: "nil cart", cart: nil, customer: customerID, want: "shopping cart is empty"},
		{name: "empty cart", cart: cartOf(), customer: customerID, want: "shopping cart is empty"},
		{name: "no customer", cart: cartOf(domain.CartItem{Product: widget(5), Quantity: 1}), customer: 0, want: "invalid customer"},
		{name: "negative customer", cart: cartOf(domain.CartItem{Product: widget(5), Quantity: 1}), customer: -4, want: "invalid customer"},
		{name: "zero quantity", cart: cartOf(domain.CartItem{Product: widget(5), Quantity: 0}), customer: customerID, want: "invalid quantity for product: Widget"},
		{name: "negative quantity", cart: cartOf(domain.CartItem{Product: widget(5), Quantity: -3}), customer: customerID, want: "invalid quantity for product: Widget"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil, widget(5))
			res := f.svc.PlaceOrder(context.Background(), tc.cart, tc.customer, "card")
			require.False(t, res.Success)
			require.Equal(t, "Order placement failed: "+tc.want, res.Message)
			require.Zero(t, f.orders.count())
			require.Equal(t, 5, f.products.stock(1))
			require.Zero(t, f.products.updates)
		})
	}
}

func TestPlaceOrder_StatusUpdateFailureRefunds(t *testing.T) {
	gw := &stubGateway{}
	f := newFixture(t, gw, widget(5))
	f.orders.failUpdate = errors.New("connection reset")
	cart := cartOf(domain.CartItem{Product: widget(5), Quantity: 2})

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "card")

	require.False(t, res.Success)
	require.Contains(t, res.Message, "connection reset")
	require.Len(t, gw.charged, 1)
	require.Equal(t, gw.charged, gw.refunded)
	require.Zero(t, f.orders.count())
	require.Equal(t, 5, f.products.stock(1))
}

func TestPlaceOrder_CompensationFailureKeepsCause(t *testing.T) {
	f := newFixture(t, nil, widget(5))
	f.orders.failDelete = errors.New("delete refused")
	cart := cartOf(domain.CartItem{Product: widget(5), Quantity: 2})

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "blocked")

	require.False(t, res.Success)
	require.True(t, strings.HasPrefix(res.Message, "Order placement failed: payment failed:"), res.Message)
	require.Contains(t, res.Message, "rollback failed")
	require.Contains(t, res.Message, "delete refused")
	// Stock is still restored: the inventory undo runs before the failing delete.
	require.Equal(t, 5, f.products.stock(1))
}

func TestPlaceOrder_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t, nil, widget(5))
	f.pub.err = errors.New("broker down")
	cart := cartOf(domain.CartItem{Product: widget(5), Quantity: 1})

	res := f.svc.PlaceOrder(context.Background(), cart, customerID, "card")

	require.True(t, res.Success)
	require.Len(t, f.pub.events, 1)
}

func placeOne(t *testing.T, f *fixture, customer int64) int64 {
	t.Helper()
	cart := &domain.Cart{CustomerID: customer, Items: []domain.CartItem{{Product: widget(100), Quantity: 1}}}
	res := f.svc.PlaceOrder(context.Background(), cart, customer, "card")
	require.True(t, res.Success, res.Message)
	return res.OrderID
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t, nil, widget(100))
	id := placeOne(t, f, customerID)
	f.pub.events = nil

	res := f.svc.CancelOrder(context.Background(), 999, customerID)
	require.False(t, res.Success)
	require.Equal(t, "Order with ID 999 not found", res.Message)

	res = f.svc.CancelOrder(context.Background(), id, customerID+1)
	require.False(t, res.Success)
	require.Equal(t, "You do not have permission to cancel this order", res.Message)
	o, err := f.orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, o.Status)
	require.Empty(t, f.pub.events)

	res = f.svc.CancelOrder(context.Background(), id, customerID)
	require.True(t, res.Success)
	require.Equal(t, "Order cancelled successfully", res.Message)

	o, err = f.orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, o.Status)
	// Cancellation leaves stock alone.
	require.Equal(t, 99, f.products.stock(1))

	require.Len(t, f.pub.events, 1)
	require.Equal(t, events.TypeOrderCancelled, f.pub.events[0].Type)
}

func TestCancelOrder_WithoutCustomerSkipsOwnership(t *testing.T) {
	f := newFixture(t, nil, widget(100))
	id := placeOne(t, f, customerID)

	res := f.svc.CancelOrder(context.Background(), id, 0)
	require.True(t, res.Success, res.Message)
}

func TestCancelOrder_UpdateFailure(t *testing.T) {
	f := newFixture(t, nil, widget(100))
	id := placeOne(t, f, customerID)
	f.orders.failUpdate = errors.New("read only")

	res := f.svc.CancelOrder(context.Background(), id, customerID)
	require.False(t, res.Success)
	require.True(t, strings.HasPrefix(res.Message, "Order cancellation failed: "), res.Message)
	require.Contains(t, res.Message, "read only")
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t, nil, widget(100))
	id := placeOne(t, f, customerID)

	first, err := f.svc.GetOrder(context.Background(), id, customerID)
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := f.svc.GetOrder(context.Background(), id, customerID)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Equal(t, id, first.OrderID)
	require.Equal(t, "paid", first.Status)
	require.Len(t, first.Items, 1)
	require.Equal(t, int64(1), first.Items[0].ProductID)
	require.True(t, first.Items[0].Subtotal.Equal(decimal.RequireFromString("10")))

	other, err := f.svc.GetOrder(context.Background(), id, customerID+1)
	require.NoError(t, err)
	require.Nil(t, other)

	missing, err := f.svc.GetOrder(context.Background(), 12345, customerID)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGetCustomerOrders_NewestFirst(t *testing.T) {
	orders := newMemOrders()
	products := newMemProducts(widget(100))
	base := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tick := 0
	svc := New(orders, products, payment.NewSimulated(nil), WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}))

	var ids []int64
	for range 3 {
		cart := &domain.Cart{Items: []domain.CartItem{{Product: widget(100), Quantity: 1}}}
		res := svc.PlaceOrder(context.Background(), cart, customerID, "card")
		require.True(t, res.Success, res.Message)
		ids = append(ids, res.OrderID)
	}
	placeOther := svc.PlaceOrder(context.Background(), &domain.Cart{Items: []domain.CartItem{{Product: widget(100), Quantity: 1}}}, customerID+1, "card")
	require.True(t, placeOther.Success)

	got, err := svc.GetCustomerOrders(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []int64{ids[2], ids[1], ids[0]}, []int64{got[0].OrderID, got[1].OrderID, got[2].OrderID})
	for _, o := range got {
		_, err := time.Parse("2006-01-02 15:04:05", o.Date)
		require.NoError(t, err)
	}
}
