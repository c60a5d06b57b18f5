// Package boltdb stores the ledger in a single bolt file. Keys are the
// big-endian transaction id taken from the bucket sequence, so a cursor walk
// visits transactions in insertion order.
package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"

	"finchat/internal/core"
	"finchat/internal/ledger"
)

var (
	_ ledger.Store    = (*Store)(nil)
	_ ledger.Inserter = (*Store)(nil)
)

var bucketName = []byte("transactions")

type record struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

type Store struct {
	db    *bolt.DB
	today func() core.Date
}

// Open opens or creates the bolt file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db, today: core.Today}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(ctx context.Context, kind core.Kind, amount float64, category, description string) error {
	_, err := s.Insert(ctx, kind, amount, category, description)
	return err
}

func (s *Store) Insert(ctx context.Context, kind core.Kind, amount float64, category, description string) (core.Transaction, error) {
	t := core.Transaction{Kind: kind, Amount: amount, Category: core.NormalizeCategory(category), Description: description, Date: s.today()}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		var err error
		if id, err = b.NextSequence(); err != nil {
			return err
		}
		val, err := json.Marshal(toRecord(t))
		if err != nil {
			return err
		}
		return b.Put(itob(id), val)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = int64(id)
	slog.InfoContext(ctx, "Transaction saved to bolt",
		"transaction_id", t.ID,
		"kind", t.Kind,
		"amount", t.Amount,
		"category", t.Category)
	return t, nil
}

func (s *Store) Edit(ctx context.Context, id int64, kind core.Kind, amount float64, category, description string) error {
	if id <= 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		key := itob(uint64(id))
		v := b.Get(key)
		if v == nil {
			slog.DebugContext(ctx, "Edit matched no transaction", "transaction_id", id)
			return nil
		}
		var r record
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		r.Type = kind.String()
		r.Amount = amount
		r.Category = category
		r.Description = description
		val, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put(key, val)
	})
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(itob(uint64(id)))
	})
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

func (s *Store) Summary(ctx context.Context) (core.Summary, error) {
	var income, expenses float64
	err := s.each(ctx, false, func(t core.Transaction) {
		switch t.Kind {
		case core.Income:
			income += t.Amount
		case core.Expense:
			expenses += t.Amount
		}
	})
	if err != nil {
		return core.Summary{}, err
	}
	return core.NewSummary(income, expenses), nil
}

// ListAll walks the bucket backwards so the newest transaction comes first.
func (s *Store) ListAll(ctx context.Context) ([]core.Transaction, error) {
	var txns []core.Transaction
	if err := s.each(ctx, true, func(t core.Transaction) {
		txns = append(txns, t)
	}); err != nil {
		return nil, err
	}
	return txns, nil
}

func (s *Store) Get(ctx context.Context, id int64) (core.Transaction, bool, error) {
	if id <= 0 {
		return core.Transaction{}, false, nil
	}
	var (
		t  core.Transaction
		ok bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(itob(uint64(id)))
		if v == nil {
			return nil
		}
		var err error
		t, err = decode(ctx, id, v)
		ok = err == nil
		return err
	})
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, ok, nil
}

func (s *Store) each(ctx context.Context, reverse bool, fn func(core.Transaction)) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		first, next := c.First, c.Next
		if reverse {
			first, next = c.Last, c.Prev
		}
		for k, v := first(); k != nil; k, v = next() {
			t, err := decode(ctx, int64(binary.BigEndian.Uint64(k)), v)
			if err != nil {
				return err
			}
			fn(t)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("iterate transactions: %w", err)
	}
	return nil
}

func toRecord(t core.Transaction) record {
	return record{
		Type:        t.Kind.String(),
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
	}
}

func decode(ctx context.Context, id int64, v []byte) (core.Transaction, error) {
	var r record
	if err := json.Unmarshal(v, &r); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %d: %w", id, err)
	}
	t := core.Transaction{
		ID:          id,
		Kind:        core.Kind(r.Type),
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
	}
	if r.Date != "" {
		d, err := core.ParseDate(r.Date)
		if err != nil {
			slog.WarnContext(ctx, "Unparseable transaction date", "transaction_id", id, "date", r.Date)
		} else {
			t.Date = d
		}
	}
	return t, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
