package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emporia/internal/domain"
	"emporia/internal/logging"
	productrepo "emporia/internal/repository/product"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Service struct {
	repo productrepo.Repository
	lg   *zap.Logger
}

func New(repo productrepo.Repository, lg *zap.Logger) *Service {
	return &Service{repo: repo, lg: logging.OrNop(lg)}
}

type CreateInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  *int64          `json:"category_id"`
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *int64           `json:"category_id"`
}

// Create lists a new product for the seller. Admins may not sell.
func (s *Service) Create(ctx context.Context, seller *domain.User, in CreateInput) (*domain.Product, error) {
	if seller == nil || seller.Role != domain.RoleSeller {
		return nil, errors.Wrap(domain.ErrForbidden, "only sellers can create products")
	}
	p := domain.Product{
		SellerID:    seller.ID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.lg.Info("product created", zap.Int64("product_id", created.ID), zap.Int64("seller_id", seller.ID))
	return created, nil
}

// List pages through all products. limit defaults to DefaultLimit and is
// capped at MaxLimit.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("product with ID %d not found", id)
	}
	return p, err
}

func (s *Service) ByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}

func (s *Service) BySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

func (s *Service) Update(ctx context.Context, actor *domain.User, id int64, in UpdateInput) (*domain.Product, error) {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if err := validate(*p); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, *p)
}

func (s *Service) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.lg.Info("product deleted", zap.Int64("product_id", id), zap.Int64("by", actor.ID))
	return nil
}

// owned loads the product and checks that actor is its seller or an admin.
func (s *Service) owned(ctx context.Context, actor *domain.User, id int64) (*domain.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrForbidden
	}
	if actor.Role != domain.RoleAdmin && (actor.Role != domain.RoleSeller || actor.ID != p.SellerID) {
		return nil, errors.Wrap(domain.ErrForbidden, "product belongs to another seller")
	}
	return p, nil
}

func validate(p domain.Product) error {
	switch {
	case p.Name == "":
		return domain.Invalid("name required")
	case !p.Price.IsPositive():
		return domain.Invalid("price must be greater than zero")
	case p.Stock < 0:
		return domain.Invalid("stock cannot be negative")
	}
	return nil
}
