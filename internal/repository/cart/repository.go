package cart

import (
	"context"

	"emporia/internal/domain"
)

// Repository persists shopping carts and their items. Get returns
// domain.ErrNotFound when the cart does not exist or belongs to someone else.
type Repository interface {
	GetOrCreate(ctx context.Context, customerID int64) (*domain.Cart, error)
	Get(ctx context.Context, cartID, customerID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID int64, quantity int) error
	UpdateItem(ctx context.Context, cartID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID int64) error
	Clear(ctx context.Context, cartID int64) error
}
