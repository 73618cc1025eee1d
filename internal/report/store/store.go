package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/report"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]report.Expense, error) {
	query := `
		SELECT t.id, t.amount, t.created_at
		FROM transactions t
		WHERE t.user_id = $1
		  AND t.type = 'EXPENSE'
		  AND t.created_at >= $2
		  AND t.created_at < $3
		ORDER BY t.created_at, t.id`

	rows, err := s.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []report.Expense

	for rows.Next() {
		var e report.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}

	return expenses, nil
}
