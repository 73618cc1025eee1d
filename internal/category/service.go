package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	// DeleteCategory unlinks referencing transactions before removing the row.
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	// UpsertCategories inserts the categories whose names are missing and
	// returns how many were inserted.
	UpsertCategories(ctx context.Context, cs []*Category) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// Create adds a category. Names outside the predefined set are private.
func (s *Service) Create(ctx context.Context, name, icon string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", apperr.ErrInvalid)
	}

	c := &Category{
		Name:    name,
		Icon:    strings.TrimSpace(icon),
		Private: !IsPredefined(name),
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, id)
}

// Seed makes sure every predefined category exists. It is safe to run
// repeatedly.
func (s *Service) Seed(ctx context.Context) (int, error) {
	cs := make([]*Category, 0, len(Predefined))
	for _, name := range Predefined {
		cs = append(cs, &Category{Name: name})
	}

	inserted, err := s.repo.UpsertCategories(ctx, cs)
	if err != nil {
		return 0, fmt.Errorf("seeding categories: %w", err)
	}

	return inserted, nil
}
