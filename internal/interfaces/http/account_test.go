package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
)

// fakeReader is a canned ledger.Reader for handler tests.
type fakeReader struct {
	accounts []*ledger.BankAccount
	txs      []*ledger.Transaction
	cards    []*ledger.CreditCard
	holdings []*ledger.Holding
}

func (f *fakeReader) ListAccounts(ctx context.Context, userID int64) ([]*ledger.BankAccount, error) {
	return f.accounts, nil
}

func (f *fakeReader) ListTransactions(ctx context.Context, userID int64, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	return f.txs, nil
}

func (f *fakeReader) ListCards(ctx context.Context, userID int64) ([]*ledger.CreditCard, error) {
	return f.cards, nil
}

func (f *fakeReader) ListHoldings(ctx context.Context, userID int64) ([]*ledger.Holding, error) {
	return f.holdings, nil
}

func (f *fakeReader) TransactionsInWindow(ctx context.Context, userID int64, from, to time.Time) ([]*ledger.Transaction, error) {
	return f.txs, nil
}

func (f *fakeReader) TotalCashCents(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (f *fakeReader) TotalInvestmentCents(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

// fakeSource always resolves to the same reader.
type fakeSource struct{ reader *fakeReader }

func (f *fakeSource) ReaderFor(ctx context.Context, userID int64) (ledger.Reader, error) {
	return f.reader, nil
}

// authedRequest builds a request carrying an authenticated user id.
func authedRequest(method, target string, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestHandleListAccounts(t *testing.T) {
	reader := &fakeReader{accounts: []*ledger.BankAccount{
		{
			ID:           1,
			UserID:       10,
			ExternalID:   "acc-1",
			Type:         ledger.AccountChecking,
			Name:         "Conta Corrente",
			Currency:     "BRL",
			BalanceCents: 123456,
		},
	}}
	handler := NewAccountHandler(&fakeSource{reader: reader})

	rec := httptest.NewRecorder()
	handler.HandleListAccounts(rec, authedRequest(http.MethodGet, "/api/accounts", 10))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var response []AccountResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("expected 1 account, got %d", len(response))
	}
	// Cents cross the HTTP boundary as major units.
	if response[0].Balance != 1234.56 {
		t.Errorf("balance = %v, want 1234.56", response[0].Balance)
	}
	if response[0].Type != "checking" {
		t.Errorf("type = %q, want checking", response[0].Type)
	}
}

func TestHandleListAccountsEmpty(t *testing.T) {
	handler := NewAccountHandler(&fakeSource{reader: &fakeReader{}})

	rec := httptest.NewRecorder()
	handler.HandleListAccounts(rec, authedRequest(http.MethodGet, "/api/accounts", 10))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// Empty results serialize as [], not null.
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestHandleListAccountsUnauthorized(t *testing.T) {
	handler := NewAccountHandler(&fakeSource{reader: &fakeReader{}})

	rec := httptest.NewRecorder()
	handler.HandleListAccounts(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
