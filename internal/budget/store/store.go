package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/budget"
	"github.com/MrJamesThe3rd/kyat/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectBudgetColumns = `
	b.id, b.user_id, b.category_id, c.name, b.amount, b.notification, b.percentage, b.created_at, b.updated_at
`

func scanBudget(s scanner) (*budget.Budget, error) {
	var (
		b          budget.Budget
		percentage sql.NullInt32
	)

	if err := s.Scan(
		&b.ID, &b.UserID, &b.CategoryID, &b.CategoryName, &b.Amount, &b.Notification, &percentage,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if percentage.Valid {
		b.Percentage = new(int(percentage.Int32))
	}

	return &b, nil
}

func nullPercentage(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}

	return sql.NullInt32{Int32: int32(*p), Valid: true}
}

func (s *Store) CreateBudget(ctx context.Context, b *budget.Budget) error {
	query := `
		WITH inserted AS (
			INSERT INTO budgets (user_id, category_id, amount, notification, percentage, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING id, category_id, created_at, updated_at
		)
		SELECT i.id, c.name, i.created_at, i.updated_at
		FROM inserted i
		JOIN categories c ON c.id = i.category_id`

	err := s.db.QueryRowContext(ctx, query,
		b.UserID,
		b.CategoryID,
		b.Amount,
		b.Notification,
		nullPercentage(b.Percentage),
	).Scan(&b.ID, &b.CategoryName, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return budget.ErrCategoryNotFound
		}

		return fmt.Errorf("creating budget: %w", err)
	}

	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id uuid.UUID) (*budget.Budget, error) {
	query := `SELECT ` + selectBudgetColumns + `
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.id = $1 AND b.user_id = $2`

	b, err := scanBudget(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting budget: %w", err)
	}

	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID uuid.UUID) ([]*budget.Budget, error) {
	query := `SELECT ` + selectBudgetColumns + `
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget

	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}

		budgets = append(budgets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budget rows: %w", err)
	}

	return budgets, nil
}

func (s *Store) UpdateBudget(ctx context.Context, userID, id uuid.UUID, params budget.EditParams) (*budget.Budget, error) {
	query := `
		WITH updated AS (
			UPDATE budgets
			SET notification = COALESCE($1, notification),
			    percentage = CASE WHEN $2::boolean THEN $3 ELSE percentage END,
			    updated_at = NOW()
			WHERE id = $4 AND user_id = $5
			RETURNING *
		)
		SELECT ` + selectBudgetColumns + `
		FROM updated b
		JOIN categories c ON c.id = b.category_id`

	b, err := scanBudget(s.db.QueryRowContext(ctx, query,
		params.Notification,
		params.Percentage != nil,
		nullPercentage(params.Percentage),
		id,
		userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("updating budget: %w", err)
	}

	return b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting budget: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return budget.ErrNotFound
	}

	return nil
}

func (s *Store) SpentAmount(ctx context.Context, userID, categoryID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::BIGINT
		FROM transactions
		WHERE user_id = $1 AND category_id = $2 AND type = 'EXPENSE'`

	var spent int64
	if err := s.db.QueryRowContext(ctx, query, userID, categoryID).Scan(&spent); err != nil {
		return 0, fmt.Errorf("summing expenses: %w", err)
	}

	return spent, nil
}

func (s *Store) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking category: %w", err)
	}

	return exists, nil
}
