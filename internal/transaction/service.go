package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/account"
	"github.com/MrJamesThe3rd/kyat/internal/apperr"
	"github.com/MrJamesThe3rd/kyat/internal/events"
	"github.com/MrJamesThe3rd/kyat/internal/metrics"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	// Begin opens a database transaction for a balance-changing write.
	Begin(ctx context.Context) (LedgerTx, error)

	GetTransaction(ctx context.Context, userID, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, int, error)
	// ListTransferGroup returns every row of the group when userID owns at
	// least one of them.
	ListTransferGroup(ctx context.Context, userID, groupID uuid.UUID) ([]*Transaction, error)
	UpdateMetadata(ctx context.Context, userID, id uuid.UUID, update MetadataUpdate) (*Transaction, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// LedgerTx is a single database transaction. Rollback after Commit is a no-op.
type LedgerTx interface {
	// LockAccounts locks the rows of the given accounts in id order and
	// returns those that exist, keyed by id.
	LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
	// Debit subtracts amount only if the balance covers it, returning
	// ErrInsufficient otherwise.
	Debit(ctx context.Context, accountID uuid.UUID, amount int64) error
	Credit(ctx context.Context, accountID uuid.UUID, amount int64) error
	InsertTransactions(ctx context.Context, txs ...*Transaction) error
	// EntryAccounts returns, without locking, the accounts touched by the row
	// id owned by userID and the other legs of its transfer.
	EntryAccounts(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error)
	// LockEntries locks the row id owned by userID together with the other
	// legs of its transfer, if any.
	LockEntries(ctx context.Context, userID, id uuid.UUID) ([]*Transaction, error)
	DeleteTransactions(ctx context.Context, ids ...uuid.UUID) error
	Commit() error
	Rollback() error
}

// TransferPolicy decides which accounts may receive a transfer.
type TransferPolicy string

const (
	// TransferPolicyAny allows any existing account as destination.
	TransferPolicyAny TransferPolicy = "any"
	// TransferPolicyOwn restricts destinations to the caller's accounts.
	TransferPolicyOwn TransferPolicy = "own"
)

type Service struct {
	repo      Repository
	publisher events.Publisher
	metrics   metrics.Recorder
	policy    TransferPolicy
	logger    *slog.Logger
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTransferPolicy(p TransferPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: events.Nop{},
		metrics:   metrics.NoOp{},
		policy:    TransferPolicyAny,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("component", "transaction")

	return s
}

type PostParams struct {
	UserID      uuid.UUID
	AccountID   uuid.UUID
	CategoryID  uuid.UUID
	Type        Type
	Amount      int64
	Remark      string
	Description string
	Attachment  string
}

// Post records an income or expense and applies it to the account balance in
// one database transaction.
func (s *Service) Post(ctx context.Context, params PostParams) (*Transaction, error) {
	start := time.Now()

	kind := string(params.Type)
	if params.Type != TypeIncome && params.Type != TypeExpense {
		kind = "POST"
	}

	t, err := s.post(ctx, params)
	s.metrics.ObserveDuration(kind, time.Since(start))

	if err != nil {
		s.metrics.Rejected(kind, apperr.Kind(err))
		return nil, err
	}

	s.metrics.Posted(kind, t.Amount)

	e := events.New(events.KindTransactionPosted, t.UserID, t.Amount)
	e.AccountIDs = []uuid.UUID{t.AccountID}
	e.TransactionIDs = []uuid.UUID{t.ID}
	s.publish(ctx, e)

	return t, nil
}

func (s *Service) post(ctx context.Context, params PostParams) (*Transaction, error) {
	if params.Type != TypeIncome && params.Type != TypeExpense {
		return nil, fmt.Errorf("%w: type must be INCOME or EXPENSE", apperr.ErrInvalid)
	}

	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", apperr.ErrInvalidAmount)
	}

	remark := strings.TrimSpace(params.Remark)
	if remark == "" {
		return nil, fmt.Errorf("%w: remark is required", apperr.ErrInvalid)
	}

	ltx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin posting: %w", err)
	}
	defer ltx.Rollback()

	accounts, err := ltx.LockAccounts(ctx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}

	acc, ok := accounts[params.AccountID]
	if !ok || acc.UserID != params.UserID {
		return nil, ErrAccountNotFound
	}

	exists, err := ltx.CategoryExists(ctx, params.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}

	if !exists {
		return nil, ErrCategoryNotFound
	}

	if params.Type == TypeExpense {
		if params.Amount > acc.Balance {
			return nil, ErrInsufficient
		}

		err = ltx.Debit(ctx, acc.ID, params.Amount)
	} else {
		err = ltx.Credit(ctx, acc.ID, params.Amount)
	}

	if err != nil {
		return nil, err
	}

	t := &Transaction{
		UserID:      params.UserID,
		AccountID:   acc.ID,
		CategoryID:  &params.CategoryID,
		Type:        params.Type,
		Amount:      params.Amount,
		Remark:      remark,
		Description: strings.TrimSpace(params.Description),
		Attachment:  params.Attachment,
	}
	if err := ltx.InsertTransactions(ctx, t); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := ltx.Commit(); err != nil {
		return nil, fmt.Errorf("commit posting: %w", err)
	}

	return t, nil
}

type TransferParams struct {
	UserID      uuid.UUID
	FromID      uuid.UUID
	ToID        uuid.UUID
	Amount      int64
	Remark      string
	Description string
	Attachment  string
}

// Transfer moves amount between two accounts, writing an outgoing and an
// incoming row that share a transfer group id.
func (s *Service) Transfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	start := time.Now()

	tr, err := s.transfer(ctx, params)
	s.metrics.ObserveDuration(string(TypeTransfer), time.Since(start))

	if err != nil {
		s.metrics.Rejected(string(TypeTransfer), apperr.Kind(err))
		return nil, err
	}

	s.metrics.Posted(string(TypeTransfer), params.Amount)

	e := events.New(events.KindTransferPosted, params.UserID, params.Amount)
	e.AccountIDs = []uuid.UUID{params.FromID, params.ToID}
	e.TransactionIDs = []uuid.UUID{tr.Outgoing.ID, tr.Incoming.ID}
	e.TransferGroupID = &tr.GroupID
	s.publish(ctx, e)

	return tr, nil
}

func (s *Service) transfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", apperr.ErrInvalidAmount)
	}

	if params.FromID == params.ToID {
		return nil, fmt.Errorf("%w: cannot transfer to the same account", apperr.ErrInvalid)
	}

	remark := strings.TrimSpace(params.Remark)
	if remark == "" {
		return nil, fmt.Errorf("%w: remark is required", apperr.ErrInvalid)
	}

	ltx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transfer: %w", err)
	}
	defer ltx.Rollback()

	accounts, err := ltx.LockAccounts(ctx, params.FromID, params.ToID)
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}

	from, ok := accounts[params.FromID]
	if !ok || from.UserID != params.UserID {
		return nil, ErrAccountNotFound
	}

	if from.Balance < params.Amount {
		return nil, ErrInsufficient
	}

	to, ok := accounts[params.ToID]
	if !ok || (s.policy == TransferPolicyOwn && to.UserID != params.UserID) {
		return nil, fmt.Errorf("destination %w", ErrAccountNotFound)
	}

	if err := ltx.Debit(ctx, from.ID, params.Amount); err != nil {
		return nil, err
	}

	if err := ltx.Credit(ctx, to.ID, params.Amount); err != nil {
		return nil, err
	}

	groupID := uuid.New()
	description := strings.TrimSpace(params.Description)

	out := &Transaction{
		UserID:          from.UserID,
		AccountID:       from.ID,
		Type:            TypeTransfer,
		Leg:             LegOutgoing,
		Amount:          params.Amount,
		Remark:          TransferOutPrefix + remark,
		Description:     description,
		Attachment:      params.Attachment,
		TransferGroupID: &groupID,
	}
	in := &Transaction{
		UserID:          to.UserID,
		AccountID:       to.ID,
		Type:            TypeTransfer,
		Leg:             LegIncoming,
		Amount:          params.Amount,
		Remark:          TransferInPrefix + remark,
		Description:     description,
		Attachment:      params.Attachment,
		TransferGroupID: &groupID,
	}

	if err := ltx.InsertTransactions(ctx, out, in); err != nil {
		return nil, fmt.Errorf("insert transfer rows: %w", err)
	}

	if err := ltx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transfer: %w", err)
	}

	return &Transfer{GroupID: groupID, Outgoing: out, Incoming: in}, nil
}

// Legs holds the rows of a transfer group split by leg. Deleting an account
// removes only its own leg, so a side may be empty for such a group.
type Legs struct {
	GroupID  uuid.UUID
	Outgoing []*Transaction
	Incoming []*Transaction
}

func (s *Service) TransferLegs(ctx context.Context, userID, groupID uuid.UUID) (*Legs, error) {
	rows, err := s.repo.ListTransferGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrTransferNotFound
	}

	legs := &Legs{GroupID: groupID}

	for _, t := range rows {
		switch t.Leg {
		case LegOutgoing:
			legs.Outgoing = append(legs.Outgoing, t)
		case LegIncoming:
			legs.Incoming = append(legs.Incoming, t)
		}
	}

	return legs, nil
}

// SortBy orders a transaction listing.
type SortBy string

const (
	SortHighest SortBy = "HIGHEST"
	SortLowest  SortBy = "LOWEST"
	SortNewest  SortBy = "NEWEST"
	SortOldest  SortBy = "OLDEST"
)

func (s SortBy) Valid() bool {
	switch s {
	case SortHighest, SortLowest, SortNewest, SortOldest:
		return true
	}

	return false
}

const MaxPageSize = 100

type ListParams struct {
	UserID   uuid.UUID
	Page     int
	PageSize int
	Type     *Type
	SortBy   SortBy
	From     *time.Time
	To       *time.Time
}

// ListFilter is what the store needs to run a listing query.
type ListFilter struct {
	UserID uuid.UUID
	Type   *Type
	SortBy SortBy
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type Page struct {
	Items      []*Transaction
	TotalCount int
	Page       int
	TotalPages int
}

func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	if params.Page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", apperr.ErrInvalid)
	}

	if params.PageSize < 1 || params.PageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page size must be between 1 and %d", apperr.ErrInvalid, MaxPageSize)
	}

	if params.SortBy == "" {
		params.SortBy = SortNewest
	}

	if !params.SortBy.Valid() {
		return nil, fmt.Errorf("%w: unknown sort %q", apperr.ErrInvalid, params.SortBy)
	}

	if params.Type != nil && !params.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", apperr.ErrInvalid, *params.Type)
	}

	if params.From != nil && params.To != nil && params.From.After(*params.To) {
		return nil, fmt.Errorf("%w: from is after to", apperr.ErrInvalid)
	}

	items, total, err := s.repo.ListTransactions(ctx, ListFilter{
		UserID: params.UserID,
		Type:   params.Type,
		SortBy: params.SortBy,
		From:   params.From,
		To:     params.To,
		Limit:  params.PageSize,
		Offset: (params.Page - 1) * params.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		TotalCount: total,
		Page:       params.Page,
		TotalPages: (total + params.PageSize - 1) / params.PageSize,
	}, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, userID, id)
}

// MetadataUpdate lists the fields a caller may change after posting. Nil
// fields are left untouched.
type MetadataUpdate struct {
	CategoryID  *uuid.UUID
	Remark      *string
	Description *string
}

func (s *Service) UpdateMetadata(ctx context.Context, userID, id uuid.UUID, update MetadataUpdate) (*Transaction, error) {
	if update.Remark != nil {
		remark := strings.TrimSpace(*update.Remark)
		if remark == "" {
			return nil, fmt.Errorf("%w: remark must not be empty", apperr.ErrInvalid)
		}

		update.Remark = &remark
	}

	if update.CategoryID != nil {
		exists, err := s.repo.CategoryExists(ctx, *update.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("check category: %w", err)
		}

		if !exists {
			return nil, ErrCategoryNotFound
		}
	}

	return s.repo.UpdateMetadata(ctx, userID, id, update)
}

// Delete removes a transaction and reverses its balance effect. Deleting
// either leg of a transfer removes both.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	removed, err := s.delete(ctx, userID, id)
	if err != nil {
		s.metrics.Rejected("DELETE", apperr.Kind(err))
		return err
	}

	e := events.New(events.KindTransactionDeleted, userID, removed[0].Amount)
	e.TransferGroupID = removed[0].TransferGroupID

	for _, t := range removed {
		e.AccountIDs = append(e.AccountIDs, t.AccountID)
		e.TransactionIDs = append(e.TransactionIDs, t.ID)
	}

	s.publish(ctx, e)

	return nil
}

func (s *Service) delete(ctx context.Context, userID, id uuid.UUID) ([]*Transaction, error) {
	ltx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin delete: %w", err)
	}
	defer ltx.Rollback()

	// Accounts are locked before transaction rows, the same order account
	// deletion uses.
	accountIDs, err := ltx.EntryAccounts(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("read entry accounts: %w", err)
	}

	if len(accountIDs) == 0 {
		return nil, ErrNotFound
	}

	if _, err := ltx.LockAccounts(ctx, accountIDs...); err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}

	entries, err := ltx.LockEntries(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("lock entries: %w", err)
	}

	// Removed by a concurrent delete while waiting on the account locks.
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	ids := make([]uuid.UUID, 0, len(entries))

	for _, t := range entries {
		if delta := t.Delta(); delta > 0 {
			err = ltx.Debit(ctx, t.AccountID, delta)
		} else {
			err = ltx.Credit(ctx, t.AccountID, -delta)
		}

		if err != nil {
			return nil, err
		}

		ids = append(ids, t.ID)
	}

	if err := ltx.DeleteTransactions(ctx, ids...); err != nil {
		return nil, fmt.Errorf("delete transactions: %w", err)
	}

	if err := ltx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}

	return entries, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, events.ErrPublisherUnavailable) {
			level = slog.LevelDebug
		}

		s.logger.Log(ctx, level, "publishing ledger event failed", "kind", e.Kind, "event_id", e.ID, "error", err)
	}
}
