package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

var (
	ErrNotFound         = fmt.Errorf("transaction %w", apperr.ErrNotFound)
	ErrAccountNotFound  = fmt.Errorf("account %w", apperr.ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", apperr.ErrNotFound)
	ErrTransferNotFound = fmt.Errorf("transfer %w", apperr.ErrNotFound)
	ErrInsufficient     = fmt.Errorf("account has %w", apperr.ErrInsufficientBalance)
)

// Type represents the kind of ledger row.
type Type string

const (
	TypeIncome   Type = "INCOME"
	TypeExpense  Type = "EXPENSE"
	TypeTransfer Type = "TRANSFER"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense || t == TypeTransfer
}

// Leg identifies which side of a transfer a TRANSFER row records.
type Leg string

const (
	LegOutgoing Leg = "OUTGOING"
	LegIncoming Leg = "INCOMING"
)

// Display prefixes for the remarks of transfer rows.
const (
	TransferOutPrefix = "Transfer Out: "
	TransferInPrefix  = "Transfer In: "
)

// Transaction is a single ledger row. Amount is in the smallest currency unit
// and is always positive; Type and Leg give it a sign.
type Transaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	AccountID       uuid.UUID
	CategoryID      *uuid.UUID
	Type            Type
	Leg             Leg // Set only for TRANSFER rows
	Amount          int64
	Remark          string
	Description     string
	Attachment      string
	TransferGroupID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// Delta is the change the row made to its account balance.
func (t *Transaction) Delta() int64 {
	switch {
	case t.Type == TypeIncome, t.Type == TypeTransfer && t.Leg == LegIncoming:
		return t.Amount
	default:
		return -t.Amount
	}
}

// Transfer groups the two rows written by a single transfer.
type Transfer struct {
	GroupID  uuid.UUID
	Outgoing *Transaction
	Incoming *Transaction
}
