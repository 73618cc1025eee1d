package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/category"
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

const selectCategoryColumns = `id, name, icon, private, created_at, updated_at`

func scanCategory(s scanner) (*category.Category, error) {
	var (
		c    category.Category
		icon sql.NullString
	)

	if err := s.Scan(&c.ID, &c.Name, &icon, &c.Private, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	c.Icon = icon.String

	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) ListCategories(ctx context.Context) ([]*category.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectCategoryColumns+` FROM categories ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var cs []*category.Category

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		cs = append(cs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	return cs, nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+selectCategoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, category.ErrNotFound
		}

		return nil, fmt.Errorf("getting category: %w", err)
	}

	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *category.Category) error {
	query := `
		INSERT INTO categories (name, icon, private, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Name, nullString(c.Icon), c.Private).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return category.ErrDuplicate
		}

		return fmt.Errorf("creating category: %w", err)
	}

	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET category_id = NULL, updated_at = NOW() WHERE category_id = $1`, id,
		); err != nil {
			return fmt.Errorf("unlinking transactions: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return category.ErrInUse
			}

			return fmt.Errorf("deleting category: %w", err)
		}

		if n, _ := res.RowsAffected(); n == 0 {
			return category.ErrNotFound
		}

		return nil
	})
}

func (s *Store) UpsertCategories(ctx context.Context, cs []*category.Category) (int, error) {
	query := `
		INSERT INTO categories (name, icon, private, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING
	`

	inserted := 0

	err := database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, c := range cs {
			res, err := tx.ExecContext(ctx, query, c.Name, nullString(c.Icon), c.Private)
			if err != nil {
				return fmt.Errorf("upserting category %q: %w", c.Name, err)
			}

			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
