package report

import (
	"time"

	"github.com/google/uuid"
)

// TimeFrame selects the window and bucket size of an expense usage report.
type TimeFrame string

const (
	TimeFrameWeekly  TimeFrame = "weekly"
	TimeFrameMonthly TimeFrame = "monthly"
	TimeFrameYearly  TimeFrame = "yearly"
)

const (
	dayKey   = time.DateOnly
	monthKey = "2006-01"
)

// Expense is the part of an EXPENSE row the reports need.
type Expense struct {
	ID        uuid.UUID
	Amount    int64
	CreatedAt time.Time
}

type Bucket struct {
	Key   string
	Total int64
}

type Usage struct {
	TimeFrame    TimeFrame
	TotalExpense int64
	Breakdown    []Bucket
}
