package order

import (
	"context"

	"emporia/internal/domain"
)

// Repository persists orders with their items. GetByID, UpdateOrder and
// DeleteOrder return domain.ErrNotFound when the order does not exist.
type Repository interface {
	CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateOrder(ctx context.Context, o domain.Order) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	GetOrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
}
