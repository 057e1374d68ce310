package category

import (
	"testing"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

func strPtr(s string) *string { return &s }

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		provider    *string
		merchant    string
		description string
		want        string
	}{
		{name: "Provider Category Wins", provider: strPtr("Groceries"), merchant: "Uber", want: "Groceries"},
		{name: "Merchant Keyword", merchant: "UBER *TRIP", want: "Transport"},
		{name: "Description Keyword", description: "Compra iFood SP", want: "Food & Drink"},
		{name: "Merchant Beats Description", merchant: "Netflix.com", description: "mercado", want: "Entertainment"},
		{name: "Case Insensitive", merchant: "FARMACIA SAO PAULO", want: "Health"},
		{name: "No Match Falls Back", merchant: "XYZZY", description: "PLUGH", want: Fallback},
		{name: "Empty Provider Category Ignored", provider: strPtr(""), merchant: "spotify", want: "Entertainment"},
		{name: "All Empty", want: Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.provider, tt.merchant, tt.description); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	// Same input must yield the same category on every call.
	for i := 0; i < 100; i++ {
		if got := Resolve(nil, "PADARIA DO ZE", ""); got != "Groceries" {
			t.Fatalf("iteration %d: Resolve() = %q, want Groceries", i, got)
		}
	}
}

func TestForTransaction(t *testing.T) {
	tests := []struct {
		name string
		tx   ledger.Transaction
		want string
	}{
		{
			name: "Locked Category Untouched",
			tx:   ledger.Transaction{Category: strPtr("My Custom"), CategoryLocked: true, Merchant: "uber"},
			want: "My Custom",
		},
		{
			name: "Unlocked Provider Category",
			tx:   ledger.Transaction{Category: strPtr("Travel")},
			want: "Travel",
		},
		{
			name: "Unlocked Heuristic",
			tx:   ledger.Transaction{Merchant: "Supermercado Pao"},
			want: "Groceries",
		},
		{
			name: "Unlocked Fallback",
			tx:   ledger.Transaction{Description: "???"},
			want: Fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForTransaction(&tt.tx); got != tt.want {
				t.Errorf("ForTransaction() = %q, want %q", got, tt.want)
			}
		})
	}
}
