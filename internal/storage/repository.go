package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finchat/internal/core"
	"finchat/internal/ledger"

	_ "modernc.org/sqlite"
)

var (
	_ ledger.Store    = (*SQLiteRepository)(nil)
	_ ledger.Inserter = (*SQLiteRepository)(nil)
	_ ledger.Pinger   = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between requests of the same process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside a transaction that is released on every exit path.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.WarnContext(ctx, "Rollback failed", "error", err)
		}
	}()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Add implements ledger.Writer
func (r *SQLiteRepository) Add(ctx context.Context, kind core.Kind, amount float64, category, description string) error {
	_, err := r.Insert(ctx, kind, amount, category, description)
	return err
}

// Insert implements ledger.Inserter
func (r *SQLiteRepository) Insert(ctx context.Context, kind core.Kind, amount float64, category, description string) (core.Transaction, error) {
	t := core.Transaction{Kind: kind, Amount: amount, Category: core.NormalizeCategory(category), Description: description, Date: core.Today()}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var id int64
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		id, err = q.CreateTransaction(ctx, CreateTransactionParams{
			Type:        t.Kind.String(),
			Amount:      t.Amount,
			Category:    t.Category,
			Description: t.Description,
			Date:        t.Date.String(),
		})
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"transaction_id", id,
		"kind", t.Kind,
		"amount", t.Amount,
		"category", t.Category,
		"date", t.Date.String())

	return t, nil
}

// Edit implements ledger.Writer
func (r *SQLiteRepository) Edit(ctx context.Context, id int64, kind core.Kind, amount float64, category, description string) error {
	var affected int64
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		affected, err = q.UpdateTransaction(ctx, UpdateTransactionParams{
			ID:          id,
			Type:        kind.String(),
			Amount:      amount,
			Category:    category,
			Description: description,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	if affected == 0 {
		slog.DebugContext(ctx, "Edit matched no transaction", "transaction_id", id)
	}
	return nil
}

// Delete implements ledger.Writer
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	var affected int64
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		affected, err = q.DeleteTransaction(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if affected == 0 {
		slog.DebugContext(ctx, "Delete matched no transaction", "transaction_id", id)
	}
	return nil
}

// Summary implements ledger.Reader
func (r *SQLiteRepository) Summary(ctx context.Context) (core.Summary, error) {
	var income, expenses float64
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		if income, err = q.SumByType(ctx, core.Income.String()); err != nil {
			return fmt.Errorf("sum income: %w", err)
		}
		if expenses, err = q.SumByType(ctx, core.Expense.String()); err != nil {
			return fmt.Errorf("sum expenses: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Summary{}, err
	}
	return core.NewSummary(income, expenses), nil
}

// ListAll implements ledger.Reader
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	var rows []TransactionRow
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		rows, err = q.ListTransactions(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txns := make([]core.Transaction, len(rows))
	for i, row := range rows {
		txns[i] = rowToTransaction(ctx, row)
	}
	return txns, nil
}

// Get implements ledger.Reader
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, bool, error) {
	var row TransactionRow
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		row, err = q.GetTransaction(ctx, id)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, false, nil
	}
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return rowToTransaction(ctx, row), true, nil
}

// Count returns the number of stored transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		n, err = q.CountTransactions(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func rowToTransaction(ctx context.Context, row TransactionRow) core.Transaction {
	t := core.Transaction{
		ID:          row.ID,
		Kind:        core.Kind(row.Type),
		Amount:      row.Amount,
		Category:    row.Category,
		Description: row.Description,
	}
	if row.Date != "" {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			slog.WarnContext(ctx, "Unparseable transaction date", "transaction_id", row.ID, "date", row.Date, "error", err)
		} else {
			t.Date = d
		}
	}
	return t
}
