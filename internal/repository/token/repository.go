package token

import (
	"context"

	"emporia/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, token domain.AccessToken) error
	Get(ctx context.Context, token string) (*domain.AccessToken, error)
	Delete(ctx context.Context, token string) error
}
