package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a placed order. ID is zero until the repository persists it.
type Order struct {
	ID          int64
	CustomerID  int64
	Items       []OrderItem
	TotalAmount decimal.Decimal
	Status      OrderStatus
	OrderDate   time.Time
}

// OrderItem is the price and product snapshot taken when the order was created.
type OrderItem struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Subtotal is the line price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
