package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"finchat/internal/advice"
	"finchat/internal/core"
	"finchat/internal/embed"
	"finchat/internal/intent"
	"finchat/internal/ledger/memory"
	"finchat/internal/llm"
	"finchat/internal/log"
)

type fakeClassifier struct {
	results map[string]intent.Classification
	err     error
}

func (f *fakeClassifier) Classify(_ context.Context, msg string) (intent.Classification, error) {
	if f.err != nil {
		return intent.Classification{}, f.err
	}
	if c, ok := f.results[msg]; ok {
		return c, nil
	}
	return intent.Classification{Intent: intent.ShowSummary, Score: 0.1}, nil
}

type echoModel struct {
	prompts []string
	systems []string
}

func (m *echoModel) Generate(_ context.Context, prompt, system string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.systems = append(m.systems, system)
	return "model says: " + prompt, nil
}

type failingStore struct{ *memory.Store }

func (failingStore) Add(context.Context, core.Kind, float64, string, string) error {
	return errors.New("database is locked")
}

func (failingStore) Summary(context.Context) (core.Summary, error) {
	return core.Summary{}, errors.New("database is locked")
}

type fixture struct {
	store  *memory.Store
	model  *echoModel
	class  *fakeClassifier
	router *Router
	logs   *bytes.Buffer
}

func newFixture(results map[string]intent.Classification) *fixture {
	f := &fixture{
		store: memory.New(),
		model: &echoModel{},
		class: &fakeClassifier{results: results},
		logs:  &bytes.Buffer{},
	}
	logger := log.New(log.Config{Output: f.logs})
	f.router = NewRouter(f.class, f.store, advice.NewAdvisor(f.store, f.model, "₹"), f.model, Options{Threshold: DefaultThreshold, Currency: "₹"}, logger)
	return f
}

func hit(i intent.Intent) intent.Classification {
	return intent.Classification{Intent: i, Score: 0.95}
}

func TestAddIncome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[string]intent.Classification{"I earned 5000": hit(intent.AddIncome)})

	reply := f.router.Handle(ctx, "I earned 5000")
	if reply.Kind != KindSuccess || reply.Text != "Added income: ₹5000.00" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	list, _ := f.store.ListAll(ctx)
	if len(list) != 1 {
		t.Fatalf("expected one transaction, got %d", len(list))
	}
	got := list[0]
	if got.Kind != core.Income || got.Amount != 5000 || got.Category != core.DefaultCategory || got.Description != "I earned 5000" {
		t.Fatalf("unexpected transaction %+v", got)
	}
	if reply.Transaction == nil || reply.Transaction.Amount != 5000 {
		t.Fatalf("reply should carry the transaction: %+v", reply.Transaction)
	}
	if len(f.model.prompts) != 0 {
		t.Fatalf("model must not be called")
	}
}

func TestAddExpenseWithCategory(t *testing.T) {
	ctx := context.Background()
	msg := "Bought groceries 500 for Food"
	f := newFixture(map[string]intent.Classification{msg: hit(intent.AddExpense)})

	reply := f.router.Handle(ctx, msg)
	if reply.Kind != KindExpense || reply.Text != "Added expense: food - ₹500.00" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	s, _ := f.store.Summary(ctx)
	if s.Expenses != 500 || s.Income != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestAddWithoutAmountWarns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[string]intent.Classification{
		"I got paid today":    hit(intent.AddIncome),
		"bought some clothes": hit(intent.AddExpense),
	})
	for _, msg := range []string{"I got paid today", "bought some clothes"} {
		reply := f.router.Handle(ctx, msg)
		if reply.Kind != KindWarning || !strings.Contains(reply.Text, "No amount detected") {
			t.Fatalf("%q: unexpected reply %+v", msg, reply)
		}
	}
	if list, _ := f.store.ListAll(ctx); len(list) != 0 {
		t.Fatalf("ledger must be unchanged, got %+v", list)
	}
}

func TestShowSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[string]intent.Classification{"Show my summary": hit(intent.ShowSummary)})
	_ = f.store.Add(ctx, core.Income, 1000, "", "")
	_ = f.store.Add(ctx, core.Expense, 250.5, "food", "")

	reply := f.router.Handle(ctx, "Show my summary")
	want := "Income: ₹1000.00 | Expenses: ₹250.50 | Remaining: ₹749.50"
	if reply.Kind != KindInfo || reply.Text != want {
		t.Fatalf("got %+v, want text %q", reply, want)
	}
}

func TestAdviceIntents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[string]intent.Classification{
		"give me saving tips": hit(intent.SavingTips),
		"help me invest":      hit(intent.InvestmentTips),
		"analyze my finances": hit(intent.FinancialAnalysis),
	})
	tests := []struct {
		msg, title, prompt string
	}{
		{"give me saving tips", "Personalized Saving Tips", "User's Financial Summary:"},
		{"help me invest", "Personalized Investment Advice", "User's Financial Profile:"},
		{"analyze my finances", "Financial Health Analysis", "User's Financial Health Metrics:"},
	}
	for i, tt := range tests {
		reply := f.router.Handle(ctx, tt.msg)
		if reply.Kind != KindAdvice || reply.Title != tt.title {
			t.Fatalf("%q: unexpected reply %+v", tt.msg, reply)
		}
		if !strings.HasPrefix(f.model.prompts[i], tt.prompt) {
			t.Fatalf("%q: unexpected prompt %q", tt.msg, f.model.prompts[i])
		}
	}
}

func TestLowScoreForwardsVerbatim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[string]intent.Classification{
		"asdkj qwoeiru": {Intent: intent.AddIncome, Score: 0.2},
		"exactly 0.6":   {Intent: intent.AddIncome, Score: 0.6},
	})

	reply := f.router.Handle(ctx, "asdkj qwoeiru")
	if reply.Kind != KindAnswer || reply.Text != "model says: asdkj qwoeiru" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if f.model.systems[0] != llm.DefaultSystem {
		t.Fatalf("expected default system instruction, got %q", f.model.systems[0])
	}

	reply = f.router.Handle(ctx, "exactly 0.6")
	if reply.Kind != KindAnswer {
		t.Fatalf("score equal to the threshold must be forwarded, got %+v", reply)
	}
	if list, _ := f.store.ListAll(ctx); len(list) != 0 {
		t.Fatalf("ledger must be unchanged")
	}
}

func TestThresholdIsTakenAsGiven(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		score     float64
		want      Kind
	}{
		{"zero threshold acts on low score", 0, 0.3, KindSuccess},
		{"zero threshold forwards zero score", 0, 0, KindAnswer},
		{"lower threshold acts", 0.25, 0.3, KindSuccess},
		{"higher threshold forwards", 0.9, 0.85, KindAnswer},
		{"negative threshold acts on zero score", -0.5, 0, KindSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			model := &echoModel{}
			class := &fakeClassifier{results: map[string]intent.Classification{
				"I earned 5000": {Intent: intent.AddIncome, Score: tt.score},
			}}
			r := NewRouter(class, store, advice.NewAdvisor(store, model, "₹"), model, Options{Threshold: tt.threshold, Currency: "₹"}, nil)

			reply := r.Handle(context.Background(), "I earned 5000")
			if reply.Kind != tt.want {
				t.Fatalf("kind = %s, want %s (%+v)", reply.Kind, tt.want, reply)
			}
		})
	}
}

func TestBlankMessage(t *testing.T) {
	f := newFixture(nil)
	f.class.err = errors.New("must not be called")
	reply := f.router.Handle(context.Background(), "   ")
	if reply.Kind != KindWarning || reply.Classified {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if len(f.model.prompts) != 0 {
		t.Fatalf("model must not be called")
	}
}

func TestClassificationErrorForwards(t *testing.T) {
	f := newFixture(nil)
	f.class.err = errors.New("embedding server down")
	reply := f.router.Handle(context.Background(), "hello")
	if reply.Kind != KindAnswer || reply.Classified || reply.Text != "model says: hello" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if !strings.Contains(f.logs.String(), "embedding server down") {
		t.Fatalf("classification error not logged: %s", f.logs.String())
	}
}

func TestModelFailureIsText(t *testing.T) {
	f := newFixture(nil)
	failing := llm.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", &llm.ProviderError{Provider: "Ollama", Message: "no such model"}
	})
	r := NewRouter(f.class, f.store, advice.NewAdvisor(f.store, failing, "₹"), failing, DefaultOptions(), nil)
	reply := r.Handle(context.Background(), "what is a bond?")
	if reply.Kind != KindAnswer || reply.Text != "❌ Ollama Error: no such model" {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestStorageErrorBecomesErrorReply(t *testing.T) {
	f := newFixture(map[string]intent.Classification{
		"I earned 10":     hit(intent.AddIncome),
		"Show my summary": hit(intent.ShowSummary),
	})
	store := failingStore{f.store}
	r := NewRouter(f.class, store, advice.NewAdvisor(store, f.model, "₹"), f.model, DefaultOptions(), log.New(log.Config{Output: f.logs}))

	for _, msg := range []string{"I earned 10", "Show my summary"} {
		if reply := r.Handle(context.Background(), msg); reply.Kind != KindError {
			t.Fatalf("%q: expected error reply, got %+v", msg, reply)
		}
	}
	if !strings.Contains(f.logs.String(), "level=ERROR") {
		t.Fatalf("storage error not logged at error level: %s", f.logs.String())
	}
}

func TestEndToEndWithHashingClassifier(t *testing.T) {
	ctx := context.Background()
	c, err := intent.NewClassifier(ctx, embed.NewHashing(0), intent.DefaultTable(), intent.Options{})
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	store := memory.New()
	model := &echoModel{}
	r := NewRouter(c, store, advice.NewAdvisor(store, model, "₹"), model, Options{Threshold: DefaultThreshold, Currency: "₹"}, nil)

	if reply := r.Handle(ctx, "I earned 5000"); reply.Kind != KindSuccess || reply.Intent != intent.AddIncome {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if reply := r.Handle(ctx, "I spent 200 on food"); reply.Kind != KindExpense {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if reply := r.Handle(ctx, "asdkj qwoeiru"); reply.Kind != KindAnswer {
		t.Fatalf("unexpected reply %+v", reply)
	}

	list, _ := store.ListAll(ctx)
	if len(list) != 2 || list[1].Amount != 5000 || list[0].Category != core.DefaultCategory {
		t.Fatalf("unexpected ledger %+v", list)
	}
}
