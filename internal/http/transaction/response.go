package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/transaction"
)

type transactionResponse struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	AccountID       uuid.UUID        `json:"account_id"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Type            transaction.Type `json:"type"`
	Leg             transaction.Leg  `json:"leg,omitempty"`
	Amount          int64            `json:"amount"`
	Remark          string           `json:"remark"`
	Description     string           `json:"description,omitempty"`
	Attachment      string           `json:"attachment,omitempty"`
	TransferGroupID *uuid.UUID       `json:"transfer_group_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
}

type transferResponse struct {
	GroupID  uuid.UUID           `json:"group_id"`
	Outgoing transactionResponse `json:"outgoing"`
	Incoming transactionResponse `json:"incoming"`
}

type legsResponse struct {
	GroupID  uuid.UUID             `json:"group_id"`
	Outgoing []transactionResponse `json:"outgoing"`
	Incoming []transactionResponse `json:"incoming"`
}

type pageResponse struct {
	Items      []transactionResponse `json:"items"`
	TotalCount int                   `json:"total_count"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"total_pages"`
}

type attachmentResponse struct {
	Attachment string `json:"attachment"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:              tx.ID,
		UserID:          tx.UserID,
		AccountID:       tx.AccountID,
		CategoryID:      tx.CategoryID,
		Type:            tx.Type,
		Leg:             tx.Leg,
		Amount:          tx.Amount,
		Remark:          tx.Remark,
		Description:     tx.Description,
		Attachment:      tx.Attachment,
		TransferGroupID: tx.TransferGroupID,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
