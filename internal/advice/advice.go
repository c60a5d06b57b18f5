// Package advice builds personalised prompts from the ledger and asks the
// language model for saving, investment and financial-health advice.
package advice

import (
	"context"
	"fmt"
	"strings"

	"finchat/internal/core"
	"finchat/internal/ledger"
	"finchat/internal/llm"
)

type Variant string

const (
	SavingTips     Variant = "saving_tips"
	InvestmentTips Variant = "investment_tips"
	HealthAnalysis Variant = "health_analysis"
)

const (
	savingSystem     = "You are an expert financial advisor specializing in personal savings strategies."
	investmentSystem = "You are a certified investment advisor. Provide practical, personalized investment recommendations."
	healthSystem     = "You are a financial health analyst. Provide thorough, actionable insights."

	topCategories = 3
)

// Advice is one generated answer. Text may be a failure message from
// llm.Ask, including for blank model output, so it is never empty.
type Advice struct {
	Variant Variant
	Title   string
	Text    string
}

// Failed reports whether the model call behind the advice failed.
func (a Advice) Failed() bool {
	return llm.IsFailure(a.Text)
}

type Advisor struct {
	ledger   ledger.Reader
	model    llm.Generator
	currency string
}

func NewAdvisor(r ledger.Reader, g llm.Generator, currencySymbol string) *Advisor {
	return &Advisor{ledger: r, model: g, currency: currencySymbol}
}

func (a *Advisor) SavingTips(ctx context.Context) (Advice, error) {
	s, err := a.ledger.Summary(ctx)
	if err != nil {
		return Advice{}, fmt.Errorf("saving tips: %w", err)
	}
	prompt := a.render("User's Financial Summary",
		[][2]string{
			{"Monthly Income", a.money(s.Income)},
			{"Monthly Expenses", a.money(s.Expenses)},
			{"Monthly Savings", a.money(s.Net)},
			{"Savings Rate", percent(s.SavingsRate())},
		},
		"Provide 3-4 specific, actionable saving tips tailored to this user's situation.")
	return a.ask(ctx, SavingTips, "Personalized Saving Tips", prompt, savingSystem), nil
}

func (a *Advisor) InvestmentTips(ctx context.Context) (Advice, error) {
	s, err := a.ledger.Summary(ctx)
	if err != nil {
		return Advice{}, fmt.Errorf("investment tips: %w", err)
	}
	txns, err := a.ledger.ListAll(ctx)
	if err != nil {
		return Advice{}, fmt.Errorf("investment tips: %w", err)
	}
	prompt := a.render("User's Financial Profile",
		[][2]string{
			{"Monthly Income", a.money(s.Income)},
			{"Monthly Expenses", a.money(s.Expenses)},
			{"Monthly Investable Amount", a.money(s.Net)},
			{"Top Expense Categories", a.categories(core.TopExpenseCategories(txns, topCategories))},
		},
		"Provide personalized investment advice considering income, spending, and investable funds.")
	return a.ask(ctx, InvestmentTips, "Personalized Investment Advice", prompt, investmentSystem), nil
}

func (a *Advisor) HealthAnalysis(ctx context.Context) (Advice, error) {
	s, err := a.ledger.Summary(ctx)
	if err != nil {
		return Advice{}, fmt.Errorf("health analysis: %w", err)
	}
	prompt := a.render("User's Financial Health Metrics",
		[][2]string{
			{"Monthly Income", a.money(s.Income)},
			{"Monthly Expenses", a.money(s.Expenses)},
			{"Monthly Savings", a.money(s.Net)},
			{"Savings Rate", percent(s.SavingsRate())},
			{"Expense-to-Income Ratio", percent(s.ExpenseRatio())},
		},
		"Provide a comprehensive financial health analysis with actionable insights.")
	return a.ask(ctx, HealthAnalysis, "Financial Health Analysis", prompt, healthSystem), nil
}

// All runs the three variants one after another, stopping at the first
// ledger error.
func (a *Advisor) All(ctx context.Context) ([]Advice, error) {
	steps := []func(context.Context) (Advice, error){a.SavingTips, a.InvestmentTips, a.HealthAnalysis}
	out := make([]Advice, 0, len(steps))
	for _, step := range steps {
		adv, err := step(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, adv)
	}
	return out, nil
}

func (a *Advisor) ask(ctx context.Context, v Variant, title, prompt, system string) Advice {
	return Advice{Variant: v, Title: title, Text: llm.Ask(ctx, a.model, prompt, system)}
}

func (a *Advisor) render(heading string, facts [][2]string, instruction string) string {
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString(":\n")
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s: %s\n", f[0], f[1])
	}
	b.WriteString("\n")
	b.WriteString(instruction)
	return b.String()
}

func (a *Advisor) money(v float64) string {
	return core.FormatAmount(a.currency, v)
}

func (a *Advisor) categories(totals []core.CategoryTotal) string {
	if len(totals) == 0 {
		return "No data"
	}
	parts := make([]string, len(totals))
	for i, t := range totals {
		parts[i] = fmt.Sprintf("%s (%s)", t.Category, a.money(t.Total))
	}
	return strings.Join(parts, ", ")
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
