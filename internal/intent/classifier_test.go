package intent

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"finchat/internal/cache"
	"finchat/internal/embed"
)

// fakeEmbedder returns fixed vectors per text and counts calls.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	fail    string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if t == f.fail {
			return nil, errors.New("embedding backend down")
		}
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func smallTable() Table {
	return Table{
		{Name: AddIncome, Examples: []string{"earned", "salary"}},
		{Name: AddExpense, Examples: []string{"spent"}},
		{Name: ShowSummary, Examples: []string{"balance"}},
	}
}

func newFake() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"earned":  {1, 0, 0},
		"salary":  {0.8, 0.6, 0},
		"spent":   {0, 1, 0},
		"balance": {0, 1, 0},
		"pay":     {0.8, 0.6, 0},
		"between": {0.6, 0.8, 0},
		"cost":    {0, 1, 0},
	}}
}

func TestClassifyPicksMaxOverExamples(t *testing.T) {
	c, err := NewClassifier(context.Background(), newFake(), smallTable(), Options{})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	got, err := c.Classify(context.Background(), "pay")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.Intent != AddIncome || math.Abs(got.Score-1) > 1e-9 {
		t.Fatalf("expected add income with score 1, got %+v", got)
	}

	got, _ = c.Classify(context.Background(), "between")
	if got.Intent != AddIncome || math.Abs(got.Score-0.96) > 1e-6 {
		t.Fatalf("expected add income via salary example (0.96), got %+v", got)
	}
}

func TestClassifyTiesGoToEarlierIntent(t *testing.T) {
	c, err := NewClassifier(context.Background(), newFake(), smallTable(), Options{Concurrency: 1})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	got, _ := c.Classify(context.Background(), "cost")
	if got.Intent != AddExpense {
		t.Fatalf("expected tie resolved to add expense, got %+v", got)
	}
}

func TestClassifyUsesCache(t *testing.T) {
	f := newFake()
	lru := cache.NewLRUCache[[]float32](8, time.Minute)
	c, err := NewClassifier(context.Background(), f, smallTable(), Options{Cache: lru})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	before := f.calls
	for i := 0; i < 3; i++ {
		if _, err := c.Classify(context.Background(), "pay"); err != nil {
			t.Fatalf("classify: %v", err)
		}
	}
	if f.calls-before != 1 {
		t.Fatalf("expected a single embedding call, got %d", f.calls-before)
	}
}

func TestNewClassifierFailsWhenEmbeddingFails(t *testing.T) {
	f := newFake()
	f.fail = "spent"
	if _, err := NewClassifier(context.Background(), f, smallTable(), Options{}); err == nil || !strings.Contains(err.Error(), "add expense") {
		t.Fatalf("expected construction error naming the intent, got %v", err)
	}
	if _, err := NewClassifier(context.Background(), newFake(), nil, Options{}); err == nil {
		t.Fatalf("expected error for empty table")
	}
}

func TestClassifyPropagatesEmbeddingError(t *testing.T) {
	f := newFake()
	c, err := NewClassifier(context.Background(), f, smallTable(), Options{})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	f.fail = "boom"
	if _, err := c.Classify(context.Background(), "boom"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefaultTableWithHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	c, err := NewClassifier(ctx, embed.NewHashing(0), DefaultTable(), Options{})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	if got := c.Intents(); len(got) != 6 || got[0] != AddIncome || got[5] != FinancialAnalysis {
		t.Fatalf("unexpected intents %v", got)
	}

	tests := []struct {
		msg  string
		want Intent
	}{
		{"I earned 5000", AddIncome},
		{"Show my summary", ShowSummary},
		{"help me invest", InvestmentTips},
	}
	for _, tt := range tests {
		got, err := c.Classify(ctx, tt.msg)
		if err != nil {
			t.Fatalf("classify %q: %v", tt.msg, err)
		}
		if got.Intent != tt.want || got.Score < 0.999 {
			t.Errorf("Classify(%q) = %+v, want %s with score 1", tt.msg, got, tt.want)
		}
	}

	got, _ := c.Classify(ctx, "asdkj qwoeiru")
	if got.Score > 0.6 {
		t.Fatalf("gibberish should stay below threshold, got %+v", got)
	}
}
