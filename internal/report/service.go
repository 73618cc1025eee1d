package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=report
type Repository interface {
	// ListExpenses returns the user's EXPENSE rows created in [from, to),
	// oldest first.
	ListExpenses(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Expense, error)
}

type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

type Option func(*Service)

// WithLocation sets the time zone days and months are cut in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ExpenseUsage sums the user's expenses into day or month buckets. Every
// bucket of the window is present, in chronological order, even when empty.
func (s *Service) ExpenseUsage(ctx context.Context, userID uuid.UUID, frame TimeFrame) (*Usage, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	var (
		from, to time.Time
		layout   string
		step     func(time.Time) time.Time
	)

	switch frame {
	case TimeFrameWeekly:
		from, to = today.AddDate(0, 0, -6), today.AddDate(0, 0, 1)
		layout, step = dayKey, nextDay
	case TimeFrameMonthly:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
		to = from.AddDate(0, 1, 0)
		layout, step = dayKey, nextDay
	case TimeFrameYearly:
		thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
		from, to = thisMonth.AddDate(0, -11, 0), thisMonth.AddDate(0, 1, 0)
		layout, step = monthKey, nextMonth
	default:
		return nil, fmt.Errorf("%w: unknown time frame %q", apperr.ErrInvalid, frame)
	}

	expenses, err := s.repo.ListExpenses(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	usage := &Usage{TimeFrame: frame}
	index := map[string]int{}

	for t := from; t.Before(to); t = step(t) {
		key := t.Format(layout)
		index[key] = len(usage.Breakdown)
		usage.Breakdown = append(usage.Breakdown, Bucket{Key: key})
	}

	for _, e := range expenses {
		i, ok := index[e.CreatedAt.In(s.loc).Format(layout)]
		if !ok {
			continue
		}

		usage.Breakdown[i].Total += e.Amount
		usage.TotalExpense += e.Amount
	}

	return usage, nil
}

func nextDay(t time.Time) time.Time   { return t.AddDate(0, 0, 1) }
func nextMonth(t time.Time) time.Time { return t.AddDate(0, 1, 0) }

// MonthlyStatement renders the user's expenses for one calendar month as an
// xlsx workbook.
func (s *Service) MonthlyStatement(ctx context.Context, userID uuid.UUID, year, month int) ([]byte, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", apperr.ErrInvalid)
	}

	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year out of range", apperr.ErrInvalid)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 1, 0)

	expenses, err := s.repo.ListExpenses(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	days := make([]statementDay, 0, 31)
	index := map[string]int{}

	for t := from; t.Before(to); t = nextDay(t) {
		index[t.Format(dayKey)] = len(days)
		days = append(days, statementDay{date: t})
	}

	for _, e := range expenses {
		i, ok := index[e.CreatedAt.In(s.loc).Format(dayKey)]
		if !ok {
			continue
		}

		days[i].amounts = append(days[i].amounts, e.Amount)
		days[i].total += e.Amount
	}

	buf, err := renderStatement(from, days)
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}

	return buf, nil
}

// StatementFileName is the download name of a monthly statement.
func StatementFileName(year, month int) string {
	return fmt.Sprintf("Monthly_Transactions_%d-%d.xlsx", year, month)
}
