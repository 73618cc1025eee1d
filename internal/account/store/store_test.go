package store_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/kyat/internal/account"
	"github.com/MrJamesThe3rd/kyat/internal/account/store"
	"github.com/MrJamesThe3rd/kyat/internal/apperr"
	"github.com/MrJamesThe3rd/kyat/internal/database"
	"github.com/MrJamesThe3rd/kyat/internal/transaction"
	txStore "github.com/MrJamesThe3rd/kyat/internal/transaction/store"
)

// openTestDB connects to the database named by KYAT_TEST_DATABASE_URL and
// applies the migrations. Tests are skipped when it is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("KYAT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("KYAT_TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.Migrate(url))

	db, err := database.New(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func createAccount(t *testing.T, s *store.Store, userID uuid.UUID, balance int64) *account.Account {
	t.Helper()

	a := &account.Account{
		UserID:  userID,
		Name:    "Savings",
		Type:    account.TypeWallet,
		SubType: account.SubTypeWallet,
		Balance: balance,
	}
	require.NoError(t, s.CreateAccount(context.Background(), a))

	return a
}

func seedCategory(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()

	var id uuid.UUID

	err := db.QueryRow(`INSERT INTO categories (name) VALUES ($1) RETURNING id`, "test-"+uuid.NewString()).Scan(&id)
	require.NoError(t, err)

	return id
}

func countRows(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&n))

	return n
}

func TestStore_DeleteAccountRemovesTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := store.New(db)
	ledger := transaction.NewService(txStore.New(db))

	userID := uuid.New()
	a := createAccount(t, s, userID, 1000)
	categoryID := seedCategory(t, db)

	posts := []struct {
		typ    transaction.Type
		amount int64
	}{
		{transaction.TypeExpense, 100},
		{transaction.TypeExpense, 250},
		{transaction.TypeIncome, 40},
	}

	for _, p := range posts {
		_, err := ledger.Post(ctx, transaction.PostParams{
			UserID: userID, AccountID: a.ID, CategoryID: categoryID,
			Type: p.typ, Amount: p.amount, Remark: "Market",
		})
		require.NoError(t, err)
	}

	require.Equal(t, 3, countRows(t, db, a.ID))

	_, err := s.DeleteAccount(ctx, uuid.New(), a.ID)
	require.ErrorIs(t, err, account.ErrNotFound)
	assert.Equal(t, 3, countRows(t, db, a.ID))

	removed, err := s.DeleteAccount(ctx, userID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Zero(t, countRows(t, db, a.ID))

	_, err = s.GetAccount(ctx, userID, a.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = s.DeleteAccount(ctx, userID, a.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestStore_DeleteAccountKeepsCounterpartLeg(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := store.New(db)
	ledger := transaction.NewService(txStore.New(db))

	userID := uuid.New()
	from := createAccount(t, s, userID, 1000)
	to := createAccount(t, s, userID, 0)

	tr, err := ledger.Transfer(ctx, transaction.TransferParams{
		UserID: userID, FromID: from.ID, ToID: to.ID, Amount: 300, Remark: "Rent",
	})
	require.NoError(t, err)

	removed, err := s.DeleteAccount(ctx, userID, from.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	legs, err := ledger.TransferLegs(ctx, userID, tr.GroupID)
	require.NoError(t, err)
	assert.Empty(t, legs.Outgoing)
	require.Len(t, legs.Incoming, 1)
	assert.Equal(t, to.ID, legs.Incoming[0].AccountID)

	got, err := s.GetAccount(ctx, userID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.Balance)
}

func TestStore_DeleteAccountWhileDeletingTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := store.New(db)
	ledger := transaction.NewService(txStore.New(db))

	userID := uuid.New()
	a := createAccount(t, s, userID, 10000)
	categoryID := seedCategory(t, db)

	var ids []uuid.UUID

	for range 10 {
		tx, err := ledger.Post(ctx, transaction.PostParams{
			UserID: userID, AccountID: a.ID, CategoryID: categoryID,
			Type: transaction.TypeExpense, Amount: 10, Remark: "Snack",
		})
		require.NoError(t, err)

		ids = append(ids, tx.ID)
	}

	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := ledger.Delete(ctx, userID, id); err != nil {
				assert.ErrorIs(t, err, apperr.ErrNotFound)
			}
		}()
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		_, err := s.DeleteAccount(ctx, userID, a.ID)
		assert.NoError(t, err)
	}()

	wg.Wait()

	assert.Zero(t, countRows(t, db, a.ID))

	_, err := s.GetAccount(ctx, userID, a.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)
}
