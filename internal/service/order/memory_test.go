package order

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"emporia/internal/domain"
	"emporia/internal/payment"
)

type memOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]domain.Order

	failDelete error
	failUpdate error
	journal    *journal
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[int64]domain.Order)}
}

func (m *memOrders) CreateOrder(_ context.Context, o domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	m.orders[o.ID] = o
	return &o, nil
}

func (m *memOrders) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) UpdateOrder(_ context.Context, o domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return nil, m.failUpdate
	}
	cur, ok := m.orders[o.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cur.Status = o.Status
	cur.TotalAmount = o.TotalAmount
	m.orders[o.ID] = cur
	return &cur, nil
}

func (m *memOrders) DeleteOrder(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	if _, ok := m.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.orders, id)
	m.journal.add("delete order %d", id)
	return nil
}

func (m *memOrders) GetOrdersByCustomer(_ context.Context, customerID int64) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].OrderDate.After(out[j].OrderDate)
	})
	return out, nil
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memProducts struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	updates  int
	journal  *journal
}

func newMemProducts(ps ...domain.Product) *memProducts {
	m := &memProducts{products: make(map[int64]domain.Product)}
	for _, p := range ps {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.products[p.ID] = p
	m.updates++
	m.journal.add("stock %d=%d", p.ID, p.Stock)
	return &p, nil
}

func (m *memProducts) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

// journal records writes across fakes in the order they happen. A nil
// journal records nothing.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

// stubGateway declines when decline is set and can refuse refunds.
type stubGateway struct {
	decline      string
	refuseRefund bool
	charged      []string
	refunded     []string
}

func (g *stubGateway) ProcessPayment(_ context.Context, amount decimal.Decimal, _ string, orderID int64) (payment.Result, error) {
	if g.decline != "" {
		return payment.Result{ErrorMessage: g.decline}, nil
	}
	id := "PAY-" + decimal.NewFromInt(orderID).String() + "-" + amount.String()
	g.charged = append(g.charged, id)
	return payment.Result{Success: true, PaymentID: id}, nil
}

func (g *stubGateway) RefundPayment(_ context.Context, paymentID string) bool {
	if g.refuseRefund {
		return false
	}
	g.refunded = append(g.refunded, paymentID)
	return true
}
