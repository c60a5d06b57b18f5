package core

import "sort"

// Summary is the ledger aggregate, recomputed on every request.
type Summary struct {
	Income   float64
	Expenses float64
	Net      float64
}

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Category string
	Total    float64
}

func NewSummary(income, expenses float64) Summary {
	return Summary{Income: income, Expenses: expenses, Net: income - expenses}
}

// SavingsRate is Net/Income as a percentage, 0 when there is no income.
func (s Summary) SavingsRate() float64 {
	if s.Income <= 0 {
		return 0
	}
	return s.Net / s.Income * 100
}

// ExpenseRatio is Expenses/Income as a percentage, 100 when there is no income.
func (s Summary) ExpenseRatio() float64 {
	if s.Income <= 0 {
		return 100
	}
	return s.Expenses / s.Income * 100
}

// TopExpenseCategories sums expenses per category and returns the n largest,
// descending. Categories with equal totals keep the order in which they were
// first seen in txns.
func TopExpenseCategories(txns []Transaction, n int) []CategoryTotal {
	var totals []CategoryTotal
	index := map[string]int{}
	for _, t := range txns {
		if t.Kind != Expense {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(totals)
			index[t.Category] = i
			totals = append(totals, CategoryTotal{Category: t.Category})
		}
		totals[i].Total += t.Amount
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})
	if n >= 0 && len(totals) > n {
		totals = totals[:n]
	}
	return totals
}
