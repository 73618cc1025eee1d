package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kyat/internal/budget"
)

type budgetResponse struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Amount       int64     `json:"amount"`
	Notification bool      `json:"notification"`
	Percentage   *int      `json:"percentage"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type notificationResponse struct {
	IsEnabled   bool             `json:"is_enabled"`
	Message     string           `json:"message,omitempty"`
	SpentAmount *int64           `json:"spent_amount,omitempty"`
	Threshold   *decimal.Decimal `json:"threshold,omitempty"`
}

type trackingResponse struct {
	Budget          budgetResponse       `json:"budget"`
	SpentAmount     int64                `json:"spent_amount"`
	RemainingAmount int64                `json:"remaining_amount"`
	Notification    notificationResponse `json:"notification"`
}

func toBudgetResponse(b *budget.Budget) budgetResponse {
	return budgetResponse{
		ID:           b.ID,
		CategoryID:   b.CategoryID,
		CategoryName: b.CategoryName,
		Amount:       b.Amount,
		Notification: b.Notification,
		Percentage:   b.Percentage,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toTrackingResponse(t *budget.Tracking) trackingResponse {
	return trackingResponse{
		Budget:          toBudgetResponse(t.Budget),
		SpentAmount:     t.SpentAmount,
		RemainingAmount: t.RemainingAmount,
		Notification: notificationResponse{
			IsEnabled:   t.Notification.IsEnabled,
			Message:     t.Notification.Message,
			SpentAmount: t.Notification.SpentAmount,
			Threshold:   t.Notification.Threshold,
		},
	}
}
