package transaction_test

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/kyat/internal/account"
	"github.com/MrJamesThe3rd/kyat/internal/apperr"
	"github.com/MrJamesThe3rd/kyat/internal/transaction"
)

// memLedger is an in-memory Repository. A LedgerTx holds the ledger lock
// until it commits or rolls back, and works on a copy of the state.
type memLedger struct {
	mu         sync.Mutex
	accounts   map[uuid.UUID]account.Account
	categories map[uuid.UUID]bool
	rows       []*transaction.Transaction
	clock      time.Time
}

func newMemLedger() *memLedger {
	return &memLedger{
		accounts:   map[uuid.UUID]account.Account{},
		categories: map[uuid.UUID]bool{},
		clock:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (l *memLedger) addAccount(userID uuid.UUID, balance int64) uuid.UUID {
	id := uuid.New()
	l.accounts[id] = account.Account{ID: id, UserID: userID, Balance: balance}

	return id
}

func (l *memLedger) addCategory() uuid.UUID {
	id := uuid.New()
	l.categories[id] = true

	return id
}

func (l *memLedger) balance(id uuid.UUID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.accounts[id].Balance
}

func (l *memLedger) rowsFor(accountID uuid.UUID) []*transaction.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*transaction.Transaction

	for _, r := range l.rows {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}

	return out
}

func (l *memLedger) Begin(context.Context) (transaction.LedgerTx, error) {
	l.mu.Lock()

	return &memTx{
		l:        l,
		accounts: cloneAccounts(l.accounts),
		rows:     slices.Clone(l.rows),
	}, nil
}

func cloneAccounts(in map[uuid.UUID]account.Account) map[uuid.UUID]account.Account {
	out := make(map[uuid.UUID]account.Account, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}

func (l *memLedger) GetTransaction(_ context.Context, userID, id uuid.UUID) (*transaction.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.rows {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}

	return nil, transaction.ErrNotFound
}

func (l *memLedger) ListTransactions(_ context.Context, f transaction.ListFilter) ([]*transaction.Transaction, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []*transaction.Transaction

	for _, r := range l.rows {
		if r.UserID != f.UserID || (f.Type != nil && r.Type != *f.Type) {
			continue
		}

		matched = append(matched, r)
	}

	slices.SortFunc(matched, func(a, b *transaction.Transaction) int {
		var c int

		switch f.SortBy {
		case transaction.SortHighest:
			c = cmp.Compare(b.Amount, a.Amount)
		case transaction.SortLowest:
			c = cmp.Compare(a.Amount, b.Amount)
		case transaction.SortOldest:
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = b.CreatedAt.Compare(a.CreatedAt)
		}

		if c != 0 {
			return c
		}

		return slices.Compare(a.ID[:], b.ID[:])
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := min(f.Offset+f.Limit, total)

	return matched[start:end], total, nil
}

func (l *memLedger) ListTransferGroup(_ context.Context, userID, groupID uuid.UUID) ([]*transaction.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		group       []*transaction.Transaction
		participant bool
	)

	for _, r := range l.rows {
		if r.TransferGroupID != nil && *r.TransferGroupID == groupID {
			group = append(group, r)
			participant = participant || r.UserID == userID
		}
	}

	if !participant {
		return nil, nil
	}

	return group, nil
}

func (l *memLedger) UpdateMetadata(context.Context, uuid.UUID, uuid.UUID, transaction.MetadataUpdate) (*transaction.Transaction, error) {
	panic("not used")
}

func (l *memLedger) CategoryExists(_ context.Context, id uuid.UUID) (bool, error) {
	return l.categories[id], nil
}

type memTx struct {
	l        *memLedger
	accounts map[uuid.UUID]account.Account
	rows     []*transaction.Transaction
	done     bool
}

func (t *memTx) LockAccounts(_ context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	out := map[uuid.UUID]*account.Account{}

	for _, id := range ids {
		if a, ok := t.accounts[id]; ok {
			out[id] = &a
		}
	}

	return out, nil
}

func (t *memTx) CategoryExists(_ context.Context, id uuid.UUID) (bool, error) {
	return t.l.categories[id], nil
}

func (t *memTx) Debit(_ context.Context, id uuid.UUID, amount int64) error {
	a := t.accounts[id]
	if a.Balance < amount {
		return transaction.ErrInsufficient
	}

	a.Balance -= amount
	t.accounts[id] = a

	return nil
}

func (t *memTx) Credit(_ context.Context, id uuid.UUID, amount int64) error {
	a := t.accounts[id]
	a.Balance += amount
	t.accounts[id] = a

	return nil
}

func (t *memTx) InsertTransactions(_ context.Context, txs ...*transaction.Transaction) error {
	for _, tx := range txs {
		t.l.clock = t.l.clock.Add(time.Minute)
		tx.ID = uuid.New()
		tx.CreatedAt = t.l.clock
		t.rows = append(t.rows, tx)
	}

	return nil
}

func (t *memTx) EntryAccounts(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	entries, err := t.LockEntries(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for _, e := range entries {
		if !slices.Contains(ids, e.AccountID) {
			ids = append(ids, e.AccountID)
		}
	}

	return ids, nil
}

func (t *memTx) LockEntries(_ context.Context, userID, id uuid.UUID) ([]*transaction.Transaction, error) {
	var target *transaction.Transaction

	for _, r := range t.rows {
		if r.ID == id && r.UserID == userID {
			target = r
		}
	}

	if target == nil {
		return nil, nil
	}

	if target.TransferGroupID == nil {
		return []*transaction.Transaction{target}, nil
	}

	var group []*transaction.Transaction

	for _, r := range t.rows {
		if r.TransferGroupID != nil && *r.TransferGroupID == *target.TransferGroupID {
			group = append(group, r)
		}
	}

	return group, nil
}

func (t *memTx) DeleteTransactions(_ context.Context, ids ...uuid.UUID) error {
	t.rows = slices.DeleteFunc(t.rows, func(r *transaction.Transaction) bool {
		return slices.Contains(ids, r.ID)
	})

	return nil
}

func (t *memTx) Commit() error {
	t.l.accounts = t.accounts
	t.l.rows = t.rows
	t.done = true
	t.l.mu.Unlock()

	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}

	t.done = true
	t.l.mu.Unlock()

	return nil
}

func TestLedger_PostingsAdjustBalance(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	userID := uuid.New()
	accountID := ledger.addAccount(userID, 1000)
	categoryID := ledger.addCategory()

	svc := transaction.NewService(ledger)

	_, err := svc.Post(ctx, transaction.PostParams{
		UserID: userID, AccountID: accountID, CategoryID: categoryID,
		Type: transaction.TypeExpense, Amount: 300, Remark: "Groceries",
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, transaction.PostParams{
		UserID: userID, AccountID: accountID, CategoryID: categoryID,
		Type: transaction.TypeIncome, Amount: 50, Remark: "Refund",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(750), ledger.balance(accountID))
	assert.Len(t, ledger.rowsFor(accountID), 2)
}

func TestLedger_RejectedExpenseWritesNothing(t *testing.T) {
	ledger := newMemLedger()
	userID := uuid.New()
	accountID := ledger.addAccount(userID, 500)

	_, err := transaction.NewService(ledger).Post(context.Background(), transaction.PostParams{
		UserID: userID, AccountID: accountID, CategoryID: ledger.addCategory(),
		Type: transaction.TypeExpense, Amount: 600, Remark: "Phone",
	})
	require.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	assert.Equal(t, int64(500), ledger.balance(accountID))
	assert.Empty(t, ledger.rowsFor(accountID))
}

func TestLedger_TransferConservesTotal(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	userID := uuid.New()
	from := ledger.addAccount(userID, 1000)
	to := ledger.addAccount(userID, 200)

	svc := transaction.NewService(ledger)

	tr, err := svc.Transfer(ctx, transaction.TransferParams{
		UserID: userID, FromID: from, ToID: to, Amount: 400, Remark: "Savings",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(600), ledger.balance(from))
	assert.Equal(t, int64(600), ledger.balance(to))

	legs, err := svc.TransferLegs(ctx, userID, tr.GroupID)
	require.NoError(t, err)
	require.Len(t, legs.Outgoing, 1)
	require.Len(t, legs.Incoming, 1)
	assert.Equal(t, from, legs.Outgoing[0].AccountID)
	assert.Equal(t, to, legs.Incoming[0].AccountID)
	assert.Equal(t, legs.Outgoing[0].Amount, legs.Incoming[0].Amount)
}

func TestLedger_DeleteTransferReversesBothLegs(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	userID := uuid.New()
	from := ledger.addAccount(userID, 1000)
	to := ledger.addAccount(userID, 200)

	svc := transaction.NewService(ledger)

	tr, err := svc.Transfer(ctx, transaction.TransferParams{
		UserID: userID, FromID: from, ToID: to, Amount: 400, Remark: "Savings",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, tr.Incoming.ID))

	assert.Equal(t, int64(1000), ledger.balance(from))
	assert.Equal(t, int64(200), ledger.balance(to))
	assert.Empty(t, ledger.rowsFor(from))
	assert.Empty(t, ledger.rowsFor(to))

	_, err = svc.TransferLegs(ctx, userID, tr.GroupID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLedger_ForeignTransferVisibleToBothParties(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	alice, bob, eve := uuid.New(), uuid.New(), uuid.New()
	from := ledger.addAccount(alice, 1000)
	to := ledger.addAccount(bob, 0)

	svc := transaction.NewService(ledger)

	tr, err := svc.Transfer(ctx, transaction.TransferParams{
		UserID: alice, FromID: from, ToID: to, Amount: 250, Remark: "Dinner",
	})
	require.NoError(t, err)
	assert.Equal(t, bob, tr.Incoming.UserID)

	for _, user := range []uuid.UUID{alice, bob} {
		legs, err := svc.TransferLegs(ctx, user, tr.GroupID)
		require.NoError(t, err)
		assert.Len(t, legs.Outgoing, 1)
		assert.Len(t, legs.Incoming, 1)
	}

	_, err = svc.TransferLegs(ctx, eve, tr.GroupID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLedger_ConcurrentExpensesNeverOverdraw(t *testing.T) {
	ledger := newMemLedger()
	userID := uuid.New()
	accountID := ledger.addAccount(userID, 1000)
	categoryID := ledger.addCategory()

	svc := transaction.NewService(ledger)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.Post(context.Background(), transaction.PostParams{
				UserID: userID, AccountID: accountID, CategoryID: categoryID,
				Type: transaction.TypeExpense, Amount: 200, Remark: "Coffee",
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, int64(0), ledger.balance(accountID))
	assert.Len(t, ledger.rowsFor(accountID), 5)
}

func TestLedger_PagesPartitionTheListing(t *testing.T) {
	ctx := context.Background()
	ledger := newMemLedger()
	userID := uuid.New()
	accountID := ledger.addAccount(userID, 0)
	categoryID := ledger.addCategory()

	svc := transaction.NewService(ledger)

	// Repeated amounts force the id tie-break.
	for i := range 23 {
		_, err := svc.Post(ctx, transaction.PostParams{
			UserID: userID, AccountID: accountID, CategoryID: categoryID,
			Type: transaction.TypeIncome, Amount: int64(100 * (i%4 + 1)), Remark: "Pay",
		})
		require.NoError(t, err)
	}

	for _, sortBy := range []transaction.SortBy{
		transaction.SortHighest, transaction.SortLowest, transaction.SortNewest, transaction.SortOldest,
	} {
		t.Run(string(sortBy), func(t *testing.T) {
			full, err := svc.List(ctx, transaction.ListParams{UserID: userID, Page: 1, PageSize: 100, SortBy: sortBy})
			require.NoError(t, err)
			require.Len(t, full.Items, 23)

			var paged []*transaction.Transaction

			for page := 1; ; page++ {
				p, err := svc.List(ctx, transaction.ListParams{UserID: userID, Page: page, PageSize: 5, SortBy: sortBy})
				require.NoError(t, err)
				assert.Equal(t, 23, p.TotalCount)
				assert.Equal(t, 5, p.TotalPages)

				if len(p.Items) == 0 {
					break
				}

				paged = append(paged, p.Items...)
			}

			assert.Equal(t, full.Items, paged)
		})
	}
}
