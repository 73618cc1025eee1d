// Package events publishes notifications about committed ledger writes.
//
// Events are informational: they are sent after the database transaction has
// committed, so a lost event never leaves the ledger inconsistent.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTransactionPosted  Kind = "transaction.posted"
	KindTransferPosted     Kind = "transfer.posted"
	KindTransactionDeleted Kind = "transaction.deleted"
)

type Event struct {
	ID              uuid.UUID   `json:"id"`
	Kind            Kind        `json:"kind"`
	UserID          uuid.UUID   `json:"user_id"`
	AccountIDs      []uuid.UUID `json:"account_ids"`
	TransactionIDs  []uuid.UUID `json:"transaction_ids"`
	TransferGroupID *uuid.UUID  `json:"transfer_group_id,omitempty"`
	Amount          int64       `json:"amount"`
	OccurredAt      time.Time   `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(kind Kind, userID uuid.UUID, amount int64) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		UserID:     userID,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
