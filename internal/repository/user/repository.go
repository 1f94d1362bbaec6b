package user

import (
	"context"

	"emporia/internal/domain"
)

// Repository persists accounts. Create returns domain.ErrAlreadyExists when the
// email or user name is taken.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
}
