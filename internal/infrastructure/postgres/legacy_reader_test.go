package postgres

import (
	"context"
	"testing"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/lib/pq"
)

func TestLegacyListTransactionsAccountFilterMatchesNothing(t *testing.T) {
	// No legacy row carries a unified account id, so the filter short-
	// circuits before any query is issued (nil db proves no round trip).
	reader := NewLegacyReader(nil)

	accountID := int64(7)
	txs, err := reader.ListTransactions(context.Background(), 10, ledger.TransactionFilter{AccountID: &accountID})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no transactions for an account filter, got %d", len(txs))
	}
}

func TestIsUndefinedTable(t *testing.T) {
	if !isUndefinedTable(&pq.Error{Code: pqUndefinedTable}) {
		t.Error("expected 42P01 to read as undefined table")
	}
	if isUndefinedTable(&pq.Error{Code: "23505"}) {
		t.Error("unique violation must not read as undefined table")
	}
	if isUndefinedTable(nil) {
		t.Error("nil error must not read as undefined table")
	}
}
