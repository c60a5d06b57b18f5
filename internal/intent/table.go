package intent

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type Intent string

const (
	AddIncome         Intent = "add income"
	AddExpense        Intent = "add expense"
	ShowSummary       Intent = "show summary"
	SavingTips        Intent = "saving tips"
	InvestmentTips    Intent = "investment tips"
	FinancialAnalysis Intent = "financial analysis"
)

var known = map[Intent]bool{
	AddIncome:         true,
	AddExpense:        true,
	ShowSummary:       true,
	SavingTips:        true,
	InvestmentTips:    true,
	FinancialAnalysis: true,
}

// Entry is one intent with its example phrases.
type Entry struct {
	Name     Intent   `yaml:"name"`
	Examples []string `yaml:"examples"`
}

// Table is the ordered intent example set.
type Table []Entry

//go:embed intents.yaml
var defaultTable []byte

// DefaultTable returns the built-in examples.
func DefaultTable() Table {
	t, err := ParseTable(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("intent: embedded table is invalid: %v", err))
	}
	return t
}

// LoadTable reads a YAML table from path, or returns the built-in table
// when path is empty.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intents file: %w", err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parse intents file %s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes and validates a YAML intent table.
func ParseTable(data []byte) (Table, error) {
	var doc struct {
		Intents Table `yaml:"intents"`
	}
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Intents) == 0 {
		return nil, errors.New("no intents defined")
	}

	seen := map[Intent]bool{}
	var errs []string
	for i := range doc.Intents {
		e := &doc.Intents[i]
		e.Name = Intent(strings.ToLower(strings.TrimSpace(string(e.Name))))
		switch {
		case !known[e.Name]:
			errs = append(errs, fmt.Sprintf("unknown intent %q", e.Name))
		case seen[e.Name]:
			errs = append(errs, fmt.Sprintf("duplicate intent %q", e.Name))
		}
		seen[e.Name] = true

		examples := e.Examples[:0]
		for _, ex := range e.Examples {
			if ex = strings.TrimSpace(ex); ex != "" {
				examples = append(examples, ex)
			}
		}
		e.Examples = examples
		if len(examples) == 0 {
			errs = append(errs, fmt.Sprintf("intent %q has no examples", e.Name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.New(strings.Join(errs, "; "))
	}
	return doc.Intents, nil
}
