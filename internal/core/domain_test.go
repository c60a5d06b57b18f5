package core

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"Income", Income, true},
		{"expense", Expense, true},
		{" EXPENSE ", Expense, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Kind: Income, Amount: 0, Category: "General"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Transaction{
		{Kind: "Transfer", Amount: 1},
		{Kind: Expense, Amount: -0.01},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("unexpected format %q", d.String())
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should format empty")
	}
	today := Today()
	if today.Format(DateLayout) != time.Now().Format(DateLayout) {
		t.Fatalf("Today() = %s", today)
	}
}

func TestNormalizeCategory(t *testing.T) {
	if NormalizeCategory("  ") != DefaultCategory {
		t.Fatalf("blank category should default")
	}
	if NormalizeCategory(" Food ") != "Food" {
		t.Fatalf("category should be trimmed")
	}
}
