// Package memory is an in-process audit mirror, used when no spreadsheet is
// configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finchat/internal/sheets"
)

var _ sheets.AuditWriter = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	entries []sheets.Entry
}

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e sheets.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return fmt.Sprintf("mem:%d", len(s.entries)), nil
}

// Entries returns a copy of everything appended so far, oldest first.
func (s *Store) Entries() []sheets.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Entry(nil), s.entries...)
}
