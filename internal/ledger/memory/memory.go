package memory

import (
	"context"
	"sync"

	"finchat/internal/core"
	"finchat/internal/ledger"
)

var (
	_ ledger.Store    = (*Store)(nil)
	_ ledger.Inserter = (*Store)(nil)
)

// Store keeps the ledger in process memory. Contents are lost on exit.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction // ascending by id
	today  func() core.Date
}

func New() *Store {
	return &Store{today: core.Today}
}

// Add stores the transaction with today's date.
func (s *Store) Add(ctx context.Context, kind core.Kind, amount float64, category, description string) error {
	_, err := s.Insert(ctx, kind, amount, category, description)
	return err
}

func (s *Store) Insert(_ context.Context, kind core.Kind, amount float64, category, description string) (core.Transaction, error) {
	t := core.Transaction{Kind: kind, Amount: amount, Category: core.NormalizeCategory(category), Description: description}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	t.Date = s.today()
	s.items = append(s.items, t)
	return t, nil
}

func (s *Store) Edit(_ context.Context, id int64, kind core.Kind, amount float64, category, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		t := &s.items[i]
		t.Kind = kind
		t.Amount = amount
		t.Category = category
		t.Description = description
	}
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return nil
}

func (s *Store) Summary(_ context.Context) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var income, expenses float64
	for _, t := range s.items {
		switch t.Kind {
		case core.Income:
			income += t.Amount
		case core.Expense:
			expenses += t.Amount
		}
	}
	return core.NewSummary(income, expenses), nil
}

// ListAll returns a copy of the ledger, newest first.
func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		out = append(out, s.items[i])
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true, nil
	}
	return core.Transaction{}, false, nil
}

func (s *Store) indexOf(id int64) int {
	for i, t := range s.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}
