// Package worker consumes ledger events and mirrors them into the audit sheet.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"finchat/internal/amqp"
	"finchat/internal/cache"
	"finchat/internal/log"
	"finchat/internal/sheets"
)

const (
	seenCacheSize = 4096
	seenCacheTTL  = 24 * time.Hour
)

// MirrorWorker appends one audit row per ledger event. Events already
// appended by this process are skipped, so a redelivery after a lost ack
// does not duplicate the row.
type MirrorWorker struct {
	sheets sheets.AuditWriter
	seen   *cache.LRUCache[string]
	logger *log.Logger

	appended   atomic.Int64
	duplicates atomic.Int64
	failures   atomic.Int64
}

type Stats struct {
	Appended   int64
	Duplicates int64
	Failures   int64
}

func NewMirrorWorker(w sheets.AuditWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		sheets: w,
		seen:   cache.NewLRUCache[string](seenCacheSize, seenCacheTTL),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// SeenCache exposes the redelivery cache so it can be registered with a
// cache.Manager for periodic cleanup.
func (w *MirrorWorker) SeenCache() *cache.LRUCache[string] {
	return w.seen
}

// EntryFromEvent flattens an event into an audit entry.
func EntryFromEvent(ev *amqp.LedgerEvent) sheets.Entry {
	t := ev.Transaction
	return sheets.Entry{
		Op:          string(ev.Op),
		ID:          ev.ID,
		Kind:        t.Kind,
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
		Timestamp:   ev.Timestamp,
	}
}

// HandleLedgerEvent matches amqp.EventHandler. A returned error makes the
// consumer requeue the delivery.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	entry := EntryFromEvent(ev)
	key := entry.Key()

	if _, ok := w.seen.Get(key); ok {
		w.duplicates.Add(1)
		w.logger.InfoContext(ctx, "Skipping already mirrored event",
			log.FieldTransactionID, ev.ID,
			"op", ev.Op)
		return nil
	}

	ref, err := w.sheets.Append(ctx, entry)
	if err != nil {
		w.failures.Add(1)
		w.logger.ErrorContext(ctx, "Failed to mirror ledger event",
			log.FieldTransactionID, ev.ID,
			"op", ev.Op,
			log.FieldError, err)
		return fmt.Errorf("append audit row: %w", err)
	}

	w.seen.Set(key, ref)
	w.appended.Add(1)
	w.logger.InfoContext(ctx, "Mirrored ledger event",
		log.FieldTransactionID, ev.ID,
		"op", ev.Op,
		"sheets_ref", ref,
		"amount", entry.Amount)
	return nil
}

func (w *MirrorWorker) Stats() Stats {
	return Stats{
		Appended:   w.appended.Load(),
		Duplicates: w.duplicates.Load(),
		Failures:   w.failures.Load(),
	}
}
