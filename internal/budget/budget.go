package budget

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

var (
	ErrNotFound         = fmt.Errorf("budget %w", apperr.ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", apperr.ErrNotFound)
)

// Budget caps spending in one category. Percentage is the share of Amount
// at which a notification is raised.
type Budget struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CategoryID   uuid.UUID
	CategoryName string // Loaded via JOIN
	Amount       int64
	Notification bool
	Percentage   *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Tracking is a budget together with what has been spent against it.
type Tracking struct {
	Budget          *Budget
	SpentAmount     int64
	RemainingAmount int64
	Notification    Notification
}

// Notification is only populated beyond IsEnabled once the threshold is hit.
type Notification struct {
	IsEnabled   bool
	Message     string
	SpentAmount *int64
	Threshold   *decimal.Decimal
}
