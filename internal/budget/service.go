package budget

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
	"github.com/MrJamesThe3rd/kyat/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budget
type Repository interface {
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, userID, id uuid.UUID) (*Budget, error)
	// ListBudgets returns the user's budgets, newest first.
	ListBudgets(ctx context.Context, userID uuid.UUID) ([]*Budget, error)
	UpdateBudget(ctx context.Context, userID, id uuid.UUID, params EditParams) (*Budget, error)
	DeleteBudget(ctx context.Context, userID, id uuid.UUID) error
	// SpentAmount sums the user's EXPENSE rows in the category.
	SpentAmount(ctx context.Context, userID, categoryID uuid.UUID) (int64, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// trackConcurrency bounds the spent-amount queries a single List runs at once.
const trackConcurrency = 8

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{repo: repo, logger: logger.With("component", "budget")}
}

type CreateParams struct {
	UserID       uuid.UUID
	CategoryID   uuid.UUID
	Amount       int64
	Notification bool
	Percentage   *int
}

func validPercentage(p *int) error {
	if p != nil && (*p < 0 || *p > 100) {
		return fmt.Errorf("%w: percentage must be between 0 and 100", apperr.ErrInvalid)
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Budget, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: budget must be greater than zero", apperr.ErrInvalidAmount)
	}

	if err := validPercentage(params.Percentage); err != nil {
		return nil, err
	}

	exists, err := s.repo.CategoryExists(ctx, params.CategoryID)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, ErrCategoryNotFound
	}

	b := &Budget{
		UserID:       params.UserID,
		CategoryID:   params.CategoryID,
		Amount:       params.Amount,
		Notification: params.Notification,
		Percentage:   params.Percentage,
	}
	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) Track(ctx context.Context, userID, id uuid.UUID) (*Tracking, error) {
	b, err := s.repo.GetBudget(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	return s.track(ctx, b)
}

// List tracks every budget of the user. Spent amounts are fetched
// concurrently; the result keeps the repository order.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Tracking, error) {
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*Tracking, len(budgets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(trackConcurrency)

	for i, b := range budgets {
		g.Go(func() error {
			t, err := s.track(gctx, b)
			if err != nil {
				return fmt.Errorf("tracking budget %s: %w", b.ID, err)
			}

			out[i] = t

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Service) track(ctx context.Context, b *Budget) (*Tracking, error) {
	spent, err := s.repo.SpentAmount(ctx, b.UserID, b.CategoryID)
	if err != nil {
		return nil, err
	}

	t := &Tracking{
		Budget:          b,
		SpentAmount:     spent,
		RemainingAmount: b.Amount - spent,
		Notification:    Notification{IsEnabled: b.Notification},
	}

	if !b.Notification || b.Percentage == nil || *b.Percentage == 0 {
		return t, nil
	}

	threshold := money.Threshold(b.Amount, *b.Percentage)
	if money.Reached(spent, threshold) {
		t.Notification.Message = fmt.Sprintf("You have spent %d out of your budget %d for category %s.",
			spent, b.Amount, b.CategoryName)
		t.Notification.SpentAmount = &spent
		t.Notification.Threshold = &threshold

		s.logger.DebugContext(ctx, "budget threshold reached", "budget_id", b.ID, "spent", spent, "threshold", threshold.String())
	}

	return t, nil
}

// EditParams holds the editable settings of a budget. Nil fields are kept.
type EditParams struct {
	Notification *bool
	Percentage   *int
}

func (s *Service) Edit(ctx context.Context, userID, id uuid.UUID, params EditParams) (*Budget, error) {
	if err := validPercentage(params.Percentage); err != nil {
		return nil, err
	}

	return s.repo.UpdateBudget(ctx, userID, id, params)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteBudget(ctx, userID, id)
}
