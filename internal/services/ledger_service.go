package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"finchat/internal/amqp"
	"finchat/internal/core"
	"finchat/internal/ledger"
)

// EventPublisher sends ledger events to the mirror workers.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

var _ ledger.Store = (*LedgerService)(nil)

// LedgerService wraps a ledger store and announces every successful mutation.
// A failed publish is logged and never fails the mutation, which has already
// been committed locally.
type LedgerService struct {
	store     ledger.Store
	publisher EventPublisher
}

// NewLedgerService creates the service. publisher may be nil when no broker
// is configured.
func NewLedgerService(store ledger.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

func (s *LedgerService) Add(ctx context.Context, kind core.Kind, amount float64, category, description string) error {
	ins, ok := s.store.(ledger.Inserter)
	if !ok {
		return s.store.Add(ctx, kind, amount, category, description)
	}
	t, err := ins.Insert(ctx, kind, amount, category, description)
	if err != nil {
		return fmt.Errorf("add transaction: %w", err)
	}
	s.publish(ctx, amqp.OpCreated, t)
	return nil
}

func (s *LedgerService) Edit(ctx context.Context, id int64, kind core.Kind, amount float64, category, description string) error {
	if err := s.store.Edit(ctx, id, kind, amount, category, description); err != nil {
		return fmt.Errorf("edit transaction: %w", err)
	}
	if s.publisher == nil {
		return nil
	}
	t, ok, err := s.store.Get(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Could not read edited transaction for event", "transaction_id", id, "error", err)
		return nil
	}
	if ok {
		s.publish(ctx, amqp.OpUpdated, t)
	}
	return nil
}

func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	var (
		before core.Transaction
		found  bool
	)
	if s.publisher != nil {
		var err error
		if before, found, err = s.store.Get(ctx, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if found {
		s.publish(ctx, amqp.OpDeleted, before)
	}
	return nil
}

func (s *LedgerService) Summary(ctx context.Context) (core.Summary, error) {
	return s.store.Summary(ctx)
}

func (s *LedgerService) ListAll(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListAll(ctx)
}

func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, bool, error) {
	return s.store.Get(ctx, id)
}

// Ping checks the underlying store when it supports it.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(ledger.Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := s.store.Summary(ctx)
	return err
}

func (s *LedgerService) publish(ctx context.Context, op amqp.EventOp, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(op, t)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event_op", op,
			"transaction_id", t.ID,
			"error", err)
	}
}

// Close closes the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
