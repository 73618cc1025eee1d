package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=account
type Repository interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, userID, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID, withTotals bool) ([]*Account, error)
	RenameAccount(ctx context.Context, userID, id uuid.UUID, name string) (*Account, error)
	// DeleteAccount removes the account and its transactions, returning how
	// many transactions went with it.
	DeleteAccount(ctx context.Context, userID, id uuid.UUID) (int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{repo: repo, logger: logger.With("component", "account")}
}

type CreateParams struct {
	UserID  uuid.UUID
	Name    string
	Type    Type
	SubType SubType
	Balance int64
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Account, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperr.ErrInvalid)
	}

	if params.Balance < 0 {
		return nil, fmt.Errorf("%w: initial balance must not be negative", apperr.ErrInvalidAmount)
	}

	if !ValidSubType(params.Type, params.SubType) {
		return nil, fmt.Errorf("%w: %q is not valid for account type %q", ErrInvalidSubtype, params.SubType, params.Type)
	}

	a := &Account{
		UserID:  params.UserID,
		Name:    name,
		Type:    params.Type,
		SubType: params.SubType,
		Balance: params.Balance,
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Account, error) {
	return s.repo.GetAccount(ctx, userID, id)
}

// List returns the user's accounts, optionally with income/expense totals.
// A user without accounts gets ErrNoAccounts.
func (s *Service) List(ctx context.Context, userID uuid.UUID, withTotals bool) ([]*Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, userID, withTotals)
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	return accounts, nil
}

func (s *Service) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperr.ErrInvalid)
	}

	return s.repo.RenameAccount(ctx, userID, id, name)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	removed, err := s.repo.DeleteAccount(ctx, userID, id)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "account deleted", "account_id", id, "transactions_removed", removed)

	return nil
}
