package product

import (
	"context"

	"emporia/internal/domain"
)

// Repository persists products. GetByID, Update and Delete return
// domain.ErrNotFound when no product matches.
type Repository interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
