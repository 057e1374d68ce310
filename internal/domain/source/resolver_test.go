package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// stubReader is distinguishable by name only; resolution tests care
// about which reader was picked, not what it returns.
type stubReader struct{ name string }

func (s *stubReader) ListAccounts(ctx context.Context, userID int64) ([]*ledger.BankAccount, error) {
	return nil, nil
}
func (s *stubReader) ListTransactions(ctx context.Context, userID int64, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	return nil, nil
}
func (s *stubReader) ListCards(ctx context.Context, userID int64) ([]*ledger.CreditCard, error) {
	return nil, nil
}
func (s *stubReader) ListHoldings(ctx context.Context, userID int64) ([]*ledger.Holding, error) {
	return nil, nil
}
func (s *stubReader) TransactionsInWindow(ctx context.Context, userID int64, from, to time.Time) ([]*ledger.Transaction, error) {
	return nil, nil
}
func (s *stubReader) TotalCashCents(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}
func (s *stubReader) TotalInvestmentCents(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

type stubProbe struct {
	hasLegacy bool
	err       error
	calls     int
}

func (p *stubProbe) HasLegacyData(ctx context.Context, userID int64) (bool, error) {
	p.calls++
	return p.hasLegacy, p.err
}

func TestReaderFor(t *testing.T) {
	legacy := &stubReader{name: "legacy"}
	unified := &stubReader{name: "unified"}

	tests := []struct {
		name      string
		hasLegacy bool
		want      *stubReader
	}{
		{name: "Legacy Rows Win", hasLegacy: true, want: legacy},
		{name: "No Legacy Rows Falls Through", hasLegacy: false, want: unified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &stubProbe{hasLegacy: tt.hasLegacy}
			r := NewResolver(probe, legacy, unified)

			got, err := r.ReaderFor(context.Background(), 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("picked %s, want %s", got.(*stubReader).name, tt.want.name)
			}
			if probe.calls != 1 {
				t.Errorf("probe called %d times, want once per request", probe.calls)
			}
		})
	}
}

func TestReaderForProbeError(t *testing.T) {
	probe := &stubProbe{err: errors.New("connection refused")}
	r := NewResolver(probe, &stubReader{}, &stubReader{})

	if _, err := r.ReaderFor(context.Background(), 1); err == nil {
		t.Fatal("expected the probe error to propagate")
	}
}
