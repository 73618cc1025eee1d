package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/account"
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

const selectAccountColumns = `
	a.id, a.user_id, a.name, a.account_type, a.account_sub_type, a.balance, a.created_at, a.updated_at
`

// scanAccount expects the columns of selectAccountColumns, optionally followed
// by the income and expense totals when withTotals is set.
func scanAccount(s scanner, withTotals bool) (*account.Account, error) {
	var (
		a                account.Account
		typ, subType     string
		income, expenses int64
	)

	dest := []any{&a.ID, &a.UserID, &a.Name, &typ, &subType, &a.Balance, &a.CreatedAt, &a.UpdatedAt}
	if withTotals {
		dest = append(dest, &income, &expenses)
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	a.Type = account.Type(typ)
	a.SubType = account.SubType(subType)

	if withTotals {
		a.Totals = &account.Totals{
			Income:         income,
			Expense:        expenses,
			DerivedBalance: a.Balance + income - expenses,
		}
	}

	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (user_id, name, account_type, account_sub_type, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.UserID,
		a.Name,
		a.Type,
		a.SubType,
		a.Balance,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + `
		FROM accounts a
		WHERE a.id = $1 AND a.user_id = $2`

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, id, userID), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID, withTotals bool) ([]*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + `
		FROM accounts a
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC, a.id`

	if withTotals {
		query = `SELECT ` + selectAccountColumns + `,
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'INCOME'), 0)::BIGINT AS total_income,
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'EXPENSE'), 0)::BIGINT AS total_expense
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		WHERE a.user_id = $1
		GROUP BY a.id
		ORDER BY a.created_at DESC, a.id`
	}

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account

	for rows.Next() {
		a, err := scanAccount(rows, withTotals)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}

		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	return accounts, nil
}

func (s *Store) RenameAccount(ctx context.Context, userID, id uuid.UUID, name string) (*account.Account, error) {
	query := `
		UPDATE accounts a
		SET name = $1, updated_at = NOW()
		WHERE a.id = $2 AND a.user_id = $3
		RETURNING ` + selectAccountColumns

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, name, id, userID), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("renaming account: %w", err)
	}

	return a, nil
}

// DeleteAccount removes the account's transactions and then the account in a
// single database transaction.
func (s *Store) DeleteAccount(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	var removed int64

	err := database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		var locked uuid.UUID

		err := tx.QueryRowContext(ctx,
			`SELECT id FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, userID,
		).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return account.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("locking account: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting account transactions: %w", err)
		}

		removed, _ = res.RowsAffected()

		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
			return fmt.Errorf("deleting account: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}
