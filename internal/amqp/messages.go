package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finchat/internal/core"
)

// EventOp names the ledger mutation an event reports.
type EventOp string

const (
	OpCreated EventOp = "created"
	OpUpdated EventOp = "updated"
	OpDeleted EventOp = "deleted"
)

// TransactionSnapshot is the wire form of a transaction.
type TransactionSnapshot struct {
	ID          int64   `json:"id"`
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// LedgerEvent is published after a successful ledger mutation. For deletes
// the snapshot holds the transaction as it was before removal.
type LedgerEvent struct {
	Op          EventOp             `json:"op"`
	ID          int64               `json:"id"`
	Transaction TransactionSnapshot `json:"transaction"`
	Timestamp   time.Time           `json:"timestamp"`
}

func NewLedgerEvent(op EventOp, t core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Op:          op,
		ID:          t.ID,
		Transaction: SnapshotOf(t),
		Timestamp:   time.Now().UTC(),
	}
}

func SnapshotOf(t core.Transaction) TransactionSnapshot {
	return TransactionSnapshot{
		ID:          t.ID,
		Kind:        t.Kind.String(),
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and validates an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown event op %q", msg.Op)
	}
	if msg.ID <= 0 {
		return nil, errors.New("event without transaction id")
	}
	return &msg, nil
}
