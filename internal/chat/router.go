// Package chat turns a single user message into a ledger change, a summary,
// generated advice or a free-form model answer.
package chat

import (
	"context"
	"strings"

	"finchat/internal/advice"
	"finchat/internal/core"
	"finchat/internal/extract"
	"finchat/internal/intent"
	"finchat/internal/ledger"
	"finchat/internal/llm"
	"finchat/internal/log"
)

const DefaultThreshold = 0.6

type Kind string

const (
	KindSuccess Kind = "success"
	KindExpense Kind = "expense"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindAdvice  Kind = "advice"
	KindAnswer  Kind = "answer"
	KindError   Kind = "error"
)

// Reply is what the user sees after one message.
type Reply struct {
	Kind  Kind
	Title string
	Text  string

	// Classified is false when the message was blank or classification failed.
	Classified bool
	Intent     intent.Intent
	Score      float64

	// Transaction is set when the message recorded one. Its ID is not known
	// to the router and stays zero.
	Transaction *core.Transaction
}

type Classifier interface {
	Classify(ctx context.Context, message string) (intent.Classification, error)
}

type Advisor interface {
	SavingTips(ctx context.Context) (advice.Advice, error)
	InvestmentTips(ctx context.Context) (advice.Advice, error)
	HealthAnalysis(ctx context.Context) (advice.Advice, error)
}

type Options struct {
	// Threshold is the score a classification must exceed to be acted on.
	// It is used as given; zero means any positive score is acted on.
	Threshold float64
	Currency  string
}

// DefaultOptions returns Options with DefaultThreshold.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

type Router struct {
	classifier Classifier
	ledger     ledger.Store
	advisor    Advisor
	model      llm.Generator
	opts       Options
	logger     *log.Logger
}

func NewRouter(c Classifier, store ledger.Store, a Advisor, g llm.Generator, opts Options, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Router{
		classifier: c,
		ledger:     store,
		advisor:    a,
		model:      g,
		opts:       opts,
		logger:     logger.WithComponent(log.ComponentChat),
	}
}

// Handle processes one message. It never returns an error: failures become
// replies of KindError or model failure text.
func (r *Router) Handle(ctx context.Context, message string) Reply {
	if strings.TrimSpace(message) == "" {
		return Reply{Kind: KindWarning, Text: "Please type a message first."}
	}

	c, err := r.classifier.Classify(ctx, message)
	if err != nil {
		r.logger.WarnContext(ctx, "Classification failed, forwarding message", log.FieldError, err)
		return r.forward(ctx, message, Reply{})
	}
	base := Reply{Classified: true, Intent: c.Intent, Score: c.Score}
	r.logger.DebugContext(ctx, "Message classified", log.NewFields().WithClassification(string(c.Intent), c.Score).ToSlice()...)

	if c.Score <= r.opts.Threshold {
		return r.forward(ctx, message, base)
	}

	switch c.Intent {
	case intent.AddIncome:
		return r.addIncome(ctx, message, base)
	case intent.AddExpense:
		return r.addExpense(ctx, message, base)
	case intent.ShowSummary:
		return r.summary(ctx, base)
	case intent.SavingTips:
		return r.advise(ctx, r.advisor.SavingTips, base)
	case intent.InvestmentTips:
		return r.advise(ctx, r.advisor.InvestmentTips, base)
	case intent.FinancialAnalysis:
		return r.advise(ctx, r.advisor.HealthAnalysis, base)
	default:
		return r.forward(ctx, message, base)
	}
}

func (r *Router) addIncome(ctx context.Context, message string, reply Reply) Reply {
	amount, ok := extract.Amount(message)
	if !ok {
		return noAmount(reply)
	}
	t := core.Transaction{Kind: core.Income, Amount: amount, Category: core.DefaultCategory, Description: message, Date: core.Today()}
	if err := r.ledger.Add(ctx, t.Kind, t.Amount, t.Category, t.Description); err != nil {
		return r.failure(ctx, reply, err, log.OpCreate)
	}
	reply.Kind = KindSuccess
	reply.Text = "Added income: " + r.money(amount)
	reply.Transaction = &t
	return reply
}

func (r *Router) addExpense(ctx context.Context, message string, reply Reply) Reply {
	amount, ok := extract.Amount(message)
	if !ok {
		return noAmount(reply)
	}
	category := extract.Category(message)
	t := core.Transaction{Kind: core.Expense, Amount: amount, Category: category, Description: message, Date: core.Today()}
	if err := r.ledger.Add(ctx, t.Kind, t.Amount, t.Category, t.Description); err != nil {
		return r.failure(ctx, reply, err, log.OpCreate)
	}
	reply.Kind = KindExpense
	reply.Text = "Added expense: " + category + " - " + r.money(amount)
	reply.Transaction = &t
	return reply
}

func (r *Router) summary(ctx context.Context, reply Reply) Reply {
	s, err := r.ledger.Summary(ctx)
	if err != nil {
		return r.failure(ctx, reply, err, log.OpRead)
	}
	reply.Kind = KindInfo
	reply.Text = "Income: " + r.money(s.Income) + " | Expenses: " + r.money(s.Expenses) + " | Remaining: " + r.money(s.Net)
	return reply
}

func (r *Router) advise(ctx context.Context, variant func(context.Context) (advice.Advice, error), reply Reply) Reply {
	adv, err := variant(ctx)
	if err != nil {
		return r.failure(ctx, reply, err, log.OpGenerate)
	}
	reply.Kind = KindAdvice
	reply.Title = adv.Title
	reply.Text = adv.Text
	return reply
}

// forward hands the raw message to the model with the default instruction.
func (r *Router) forward(ctx context.Context, message string, reply Reply) Reply {
	reply.Kind = KindAnswer
	reply.Text = llm.Ask(ctx, r.model, message, llm.DefaultSystem)
	return reply
}

func (r *Router) failure(ctx context.Context, reply Reply, err error, op string) Reply {
	r.logger.ErrorContext(ctx, "Chat request failed",
		log.FieldIntent, reply.Intent,
		log.FieldOperation, op,
		log.FieldError, err)
	reply.Kind = KindError
	reply.Text = "Something went wrong while reading or updating your ledger. Please try again."
	return reply
}

func noAmount(reply Reply) Reply {
	reply.Kind = KindWarning
	reply.Text = "No amount detected in your message. Try something like \"I spent 200 on food\"."
	return reply
}

func (r *Router) money(v float64) string {
	return core.FormatAmount(r.opts.Currency, v)
}
