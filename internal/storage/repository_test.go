package storage

import (
	"context"
	"path/filepath"
	"testing"

	"finchat/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger", "finance.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSummaryEmptyLedger(t *testing.T) {
	repo := newTestRepo(t)
	s, err := repo.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s != (core.Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestAddListAndSummary(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Add(ctx, core.Income, 5000, "General", "I earned 5000"); err != nil {
		t.Fatalf("add income: %v", err)
	}
	if err := repo.Add(ctx, core.Expense, 200, "", "I spent 200 on food"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	txns, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	// newest first
	if txns[0].ID <= txns[1].ID {
		t.Fatalf("expected descending ids, got %d then %d", txns[0].ID, txns[1].ID)
	}
	exp := txns[0]
	if exp.Kind != core.Expense || exp.Amount != 200 || exp.Category != core.DefaultCategory || exp.Description != "I spent 200 on food" {
		t.Fatalf("unexpected expense row: %+v", exp)
	}
	if exp.Date.String() != core.Today().String() {
		t.Fatalf("expected today's date, got %s", exp.Date)
	}

	s, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Income != 5000 || s.Expenses != 200 || s.Net != 4800 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestAddRejectsInvalidTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Add(ctx, core.Kind("Transfer"), 1, "", ""); err == nil {
		t.Fatalf("expected error for invalid kind")
	}
	if err := repo.Add(ctx, core.Income, -1, "", ""); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Fatalf("expected empty ledger, got %d rows", n)
	}
}

func TestEditReplacesMutableFields(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Add(ctx, core.Income, 10, "General", "first"); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := repo.ListAll(ctx)
	id := before[0].ID

	if err := repo.Edit(ctx, id, core.Expense, 42.5, "rent", "edited"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got, ok, err := repo.Get(ctx, id)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.ID != id || got.Kind != core.Expense || got.Amount != 42.5 || got.Category != "rent" || got.Description != "edited" {
		t.Fatalf("unexpected edited row: %+v", got)
	}
	if got.Date != before[0].Date {
		t.Fatalf("edit must keep the recorded date")
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("edit changed record count to %d", n)
	}
}

func TestEditAndDeleteMissingIDAreNoOps(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Add(ctx, core.Income, 10, "General", "keep"); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := repo.ListAll(ctx)

	if err := repo.Edit(ctx, 9999, core.Expense, 1, "x", "y"); err != nil {
		t.Fatalf("edit missing id should not error: %v", err)
	}
	if err := repo.Delete(ctx, 9999); err != nil {
		t.Fatalf("delete missing id should not error: %v", err)
	}

	after, _ := repo.ListAll(ctx)
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("ledger changed: before=%+v after=%+v", before, after)
	}
	if _, ok, err := repo.Get(ctx, 9999); ok || err != nil {
		t.Fatalf("get missing id: ok=%v err=%v", ok, err)
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, d := range []string{"a", "b", "c"} {
		if err := repo.Add(ctx, core.Expense, 1, "General", d); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	txns, _ := repo.ListAll(ctx)
	if err := repo.Delete(ctx, txns[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	after, _ := repo.ListAll(ctx)
	if len(after) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(after))
	}
	for _, tx := range after {
		if tx.ID == txns[1].ID {
			t.Fatalf("deleted row %d still present", tx.ID)
		}
	}
}

func TestReopenKeepsDataAndIDsMonotonic(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "finance.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = repo.Add(ctx, core.Income, 1, "", "one")
	_ = repo.Add(ctx, core.Income, 2, "", "two")
	txns, _ := repo.ListAll(ctx)
	_ = repo.Delete(ctx, txns[0].ID)
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	_ = repo.Add(ctx, core.Income, 3, "", "three")
	after, _ := repo.ListAll(ctx)
	if len(after) != 2 {
		t.Fatalf("expected 2 rows after reopen, got %d", len(after))
	}
	if after[0].ID <= txns[0].ID {
		t.Fatalf("ids must keep increasing after delete: new=%d old max=%d", after[0].ID, txns[0].ID)
	}
}
