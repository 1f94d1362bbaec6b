package category

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"emporia/internal/domain"
	"emporia/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("category with ID %d not found", id)
	}
	return c, err
}

func (s *Service) Create(ctx context.Context, actor *domain.User, in Input) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name required")
	}
	return s.repo.Create(ctx, domain.Category{Name: name, Description: strings.TrimSpace(in.Description)})
}

func (s *Service) Update(ctx context.Context, actor *domain.User, id int64, in Input) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	if in.Description != "" {
		c.Description = strings.TrimSpace(in.Description)
	}
	return s.repo.Update(ctx, *c)
}

func (s *Service) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("category with ID %d not found", id)
	}
	return err
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return errors.Wrap(domain.ErrForbidden, "admin role required")
	}
	return nil
}
