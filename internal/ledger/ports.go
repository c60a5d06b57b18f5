package ledger

import (
	"context"

	"finchat/internal/core"
)

// Ports for ledger backends.
type (
	// Writer mutates the ledger. Edit and Delete on an unknown id are no-ops.
	Writer interface {
		Add(ctx context.Context, kind core.Kind, amount float64, category, description string) error
		Edit(ctx context.Context, id int64, kind core.Kind, amount float64, category, description string) error
		Delete(ctx context.Context, id int64) error
	}

	// Reader exposes the derived views of the ledger.
	Reader interface {
		// Summary returns income and expense totals, zero when the ledger is empty.
		Summary(ctx context.Context) (core.Summary, error)
		// ListAll returns every transaction, newest first.
		ListAll(ctx context.Context) ([]core.Transaction, error)
		// Get returns a single transaction; ok is false when the id is unknown.
		Get(ctx context.Context, id int64) (tx core.Transaction, ok bool, err error)
	}

	Store interface {
		Writer
		Reader
	}

	// Inserter is implemented by stores that can report the transaction they
	// just created, including its assigned id and date.
	Inserter interface {
		Insert(ctx context.Context, kind core.Kind, amount float64, category, description string) (core.Transaction, error)
	}

	// Pinger is implemented by stores with a reachability check.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
