package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/account"
)

type accountResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Type           account.Type    `json:"account_type"`
	SubType        account.SubType `json:"account_sub_type"`
	Balance        int64           `json:"balance"`
	TotalIncome    *int64          `json:"total_income,omitempty"`
	TotalExpense   *int64          `json:"total_expense,omitempty"`
	DerivedBalance *int64          `json:"derived_balance,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type accountTypeResponse struct {
	Type     account.Type      `json:"account_type"`
	SubTypes []account.SubType `json:"account_sub_types"`
}

func toResponse(a *account.Account) accountResponse {
	resp := accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      a.Type,
		SubType:   a.SubType,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}

	if a.Totals != nil {
		resp.TotalIncome = &a.Totals.Income
		resp.TotalExpense = &a.Totals.Expense
		resp.DerivedBalance = &a.Totals.DerivedBalance
	}

	return resp
}

func toResponseList(accounts []*account.Account) []accountResponse {
	resp := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		resp[i] = toResponse(a)
	}

	return resp
}
