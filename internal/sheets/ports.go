// Package sheets defines the audit mirror written by the finchat worker: one
// spreadsheet row per ledger mutation.
package sheets

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Header names the audit columns in the order Row emits them.
var Header = []string{"Op", "ID", "Type", "Amount", "Category", "Description", "Date", "Recorded At"}

// Entry is one ledger mutation as it should appear in the audit sheet.
type Entry struct {
	Op          string
	ID          int64
	Kind        string
	Amount      float64
	Category    string
	Description string
	Date        string
	Timestamp   time.Time
}

var (
	ErrMissingOp = errors.New("audit entry without op")
	ErrMissingID = errors.New("audit entry without transaction id")
)

func (e Entry) Validate() error {
	if e.Op == "" {
		return ErrMissingOp
	}
	if e.ID <= 0 {
		return ErrMissingID
	}
	return nil
}

// Row renders the entry as sheet cells. Amount stays numeric so the sheet can
// sum it; the timestamp is RFC 3339 in UTC.
func (e Entry) Row() []any {
	return []any{
		e.Op,
		e.ID,
		e.Kind,
		e.Amount,
		e.Category,
		e.Description,
		e.Date,
		e.Timestamp.UTC().Format(time.RFC3339),
	}
}

// Key identifies an entry across redeliveries of the same event.
func (e Entry) Key() string {
	return e.Op + ":" + strconv.FormatInt(e.ID, 10) + ":" + strconv.FormatInt(e.Timestamp.UnixNano(), 10)
}

// AuditWriter appends entries to the mirror.
type AuditWriter interface {
	Append(ctx context.Context, e Entry) (rowRef string, err error)
}
