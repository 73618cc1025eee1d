package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/account"
	"github.com/MrJamesThe3rd/kyat/internal/database"
	"github.com/MrJamesThe3rd/kyat/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectTransactionColumns = `
	t.id, t.user_id, t.account_id, t.category_id, t.type, t.leg, t.amount, t.remark,
	t.description, t.attachment, t.transfer_group_id, t.created_at, t.updated_at
`

// scanTransaction expects the columns of selectTransactionColumns.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var (
		t                            transaction.Transaction
		typ                          string
		leg, description, attachment sql.NullString
	)

	if err := s.Scan(
		&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &typ, &leg, &t.Amount, &t.Remark,
		&description, &attachment, &t.TransferGroupID, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Type = transaction.Type(typ)
	t.Leg = transaction.Leg(leg.String)
	t.Description = description.String
	t.Attachment = attachment.String

	return &t, nil
}

func scanTransactions(rows *sql.Rows) ([]*transaction.Transaction, error) {
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func uuidArray(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}

func (s *Store) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.id = $1 AND t.user_id = $2`

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return t, nil
}

var orderBy = map[transaction.SortBy]string{
	transaction.SortHighest: "t.amount DESC, t.id",
	transaction.SortLowest:  "t.amount ASC, t.id",
	transaction.SortNewest:  "t.created_at DESC, t.id",
	transaction.SortOldest:  "t.created_at ASC, t.id",
}

// ListTransactions returns one page of the user's transactions and the total
// number of rows matching the filter.
func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, int, error) {
	where := []string{"t.user_id = $1"}
	args := []any{filter.UserID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		where = append(where, fmt.Sprintf("t.type = $%d", len(args)))
	}

	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}

	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions t WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting transactions: %w", err)
	}

	order, ok := orderBy[filter.SortBy]
	if !ok {
		order = orderBy[transaction.SortNewest]
	}

	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE ` + cond + `
		ORDER BY ` + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing transactions: %w", err)
	}

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (s *Store) ListTransferGroup(ctx context.Context, userID, groupID uuid.UUID) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.transfer_group_id = $1
		  AND EXISTS (
			SELECT 1 FROM transactions p
			WHERE p.transfer_group_id = $1 AND p.user_id = $2
		  )
		ORDER BY t.leg DESC, t.id`

	rows, err := s.db.QueryContext(ctx, query, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing transfer group: %w", err)
	}

	return scanTransactions(rows)
}

func (s *Store) UpdateMetadata(ctx context.Context, userID, id uuid.UUID, update transaction.MetadataUpdate) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions t
		SET category_id = COALESCE($1, t.category_id),
		    remark = COALESCE($2, t.remark),
		    description = COALESCE($3, t.description),
		    updated_at = NOW()
		WHERE t.id = $4 AND t.user_id = $5
		RETURNING ` + selectTransactionColumns

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query,
		update.CategoryID,
		update.Remark,
		update.Description,
		id,
		userID,
	))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, transaction.ErrNotFound
		case database.IsForeignKeyViolation(err):
			return nil, transaction.ErrCategoryNotFound
		}

		return nil, fmt.Errorf("updating transaction metadata: %w", err)
	}

	return t, nil
}

func (s *Store) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return categoryExists(ctx, s.db, id)
}

func categoryExists(ctx context.Context, q querier, id uuid.UUID) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking category: %w", err)
	}

	return exists, nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (transaction.LedgerTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ledger tx: %w", err)
	}

	return &ledgerTx{tx: dbTx}, nil
}

func (l *ledgerTx) Commit() error { return l.tx.Commit() }

func (l *ledgerTx) Rollback() error {
	if err := l.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

// LockAccounts takes row locks in id order so two opposing transfers cannot
// deadlock.
func (l *ledgerTx) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	query := `
		SELECT a.id, a.user_id, a.name, a.account_type, a.account_sub_type, a.balance, a.created_at, a.updated_at
		FROM accounts a
		WHERE a.id = ANY($1::uuid[])
		ORDER BY a.id
		FOR UPDATE`

	rows, err := l.tx.QueryContext(ctx, query, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("locking accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[uuid.UUID]*account.Account, len(ids))

	for rows.Next() {
		var (
			a            account.Account
			typ, subType string
		)

		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &typ, &subType, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}

		a.Type = account.Type(typ)
		a.SubType = account.SubType(subType)
		accounts[a.ID] = &a
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	return accounts, nil
}

func (l *ledgerTx) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return categoryExists(ctx, l.tx, id)
}

// Debit is the only way a balance goes down: the row is updated only when it
// still covers the amount.
func (l *ledgerTx) Debit(ctx context.Context, accountID uuid.UUID, amount int64) error {
	res, err := l.tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1`,
		amount, accountID,
	)
	if err != nil {
		return fmt.Errorf("debiting account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debiting account: %w", err)
	}

	if n == 0 {
		return transaction.ErrInsufficient
	}

	return nil
}

func (l *ledgerTx) Credit(ctx context.Context, accountID uuid.UUID, amount int64) error {
	res, err := l.tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2`,
		amount, accountID,
	)
	if err != nil {
		return fmt.Errorf("crediting account: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return transaction.ErrAccountNotFound
	}

	return nil
}

func (l *ledgerTx) InsertTransactions(ctx context.Context, txs ...*transaction.Transaction) error {
	query := `
		INSERT INTO transactions (
			user_id, account_id, category_id, type, leg, amount, remark,
			description, attachment, transfer_group_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at`

	for _, t := range txs {
		err := l.tx.QueryRowContext(ctx, query,
			t.UserID,
			t.AccountID,
			t.CategoryID,
			t.Type,
			nullString(string(t.Leg)),
			t.Amount,
			t.Remark,
			nullString(t.Description),
			nullString(t.Attachment),
			t.TransferGroupID,
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return transaction.ErrCategoryNotFound
			}

			return fmt.Errorf("creating transaction: %w", err)
		}
	}

	return nil
}

func (l *ledgerTx) EntryAccounts(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := l.tx.QueryContext(ctx, `
		SELECT DISTINCT t.account_id
		FROM transactions t
		WHERE (t.id = $1 AND t.user_id = $2)
		   OR t.transfer_group_id = (
			SELECT transfer_group_id FROM transactions
			WHERE id = $1 AND user_id = $2
		   )`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("reading entry accounts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var accountID uuid.UUID
		if err := rows.Scan(&accountID); err != nil {
			return nil, fmt.Errorf("scanning entry account: %w", err)
		}

		ids = append(ids, accountID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry accounts: %w", err)
	}

	return ids, nil
}

func (l *ledgerTx) LockEntries(ctx context.Context, userID, id uuid.UUID) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE (t.id = $1 AND t.user_id = $2)
		   OR t.transfer_group_id = (
			SELECT transfer_group_id FROM transactions
			WHERE id = $1 AND user_id = $2
		   )
		ORDER BY t.id
		FOR UPDATE`

	rows, err := l.tx.QueryContext(ctx, query, id, userID)
	if err != nil {
		return nil, fmt.Errorf("locking transaction rows: %w", err)
	}

	return scanTransactions(rows)
}

func (l *ledgerTx) DeleteTransactions(ctx context.Context, ids ...uuid.UUID) error {
	_, err := l.tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ANY($1::uuid[])`, uuidArray(ids))
	if err != nil {
		return fmt.Errorf("deleting transactions: %w", err)
	}

	return nil
}
