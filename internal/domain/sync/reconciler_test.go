package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/provider"
)

func connected(id, userID int64, itemID string) *ledger.Connection {
	return &ledger.Connection{
		ID:             id,
		UserID:         userID,
		Provider:       "pluggy",
		ExternalItemID: itemID,
		Status:         ledger.StatusConnected,
	}
}

func TestSyncCooldown(t *testing.T) {
	env := newTestEnv()
	conn := env.addConnection(connected(1, 10, "item-1"))
	recent := time.Now().Add(-1 * time.Minute)
	conn.LastSyncAt = &recent

	_, err := env.svc.Sync(context.Background(), 10, 1)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if env.api.Calls != 0 {
		t.Errorf("expected no provider calls during cooldown, got %d", env.api.Calls)
	}
}

func TestSyncCooldownElapsed(t *testing.T) {
	env := newTestEnv()
	conn := env.addConnection(connected(1, 10, "item-1"))
	old := time.Now().Add(-10 * time.Minute)
	conn.LastSyncAt = &old

	result, err := env.svc.Sync(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if env.api.Calls == 0 {
		t.Error("expected provider calls after cooldown elapsed")
	}
}

func TestSyncOwnership(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))

	tests := []struct {
		name         string
		userID       int64
		connectionID int64
		wantErr      error
	}{
		{name: "Wrong User", userID: 99, connectionID: 1, wantErr: ledger.ErrForbidden},
		{name: "Unknown Connection", userID: 10, connectionID: 404, wantErr: ledger.ErrConnectionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Sync(context.Background(), tt.userID, tt.connectionID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Sync() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSyncPrimaryFetchFailureAborts(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))
	env.api.GetAccountsFunc = func(ctx context.Context, itemID string) (*provider.AccountResponse, error) {
		return nil, errors.New("provider down")
	}

	_, err := env.svc.Sync(context.Background(), 10, 1)
	if err == nil {
		t.Fatal("expected error when the primary fetch fails")
	}
	if len(env.connections.SyncRecords) != 1 || env.connections.SyncRecords[0] != ledger.SyncStatusError {
		t.Errorf("expected one error sync record, got %v", env.connections.SyncRecords)
	}
	if env.connections.LastSyncErrors[0] == nil {
		t.Error("expected the failure message to be recorded")
	}
	// cards and investments must not run after the abort
	if len(env.cards.CardUpserts) != 0 || len(env.investments.HoldingUpserts) != 0 {
		t.Error("expected no downstream writes after abort")
	}
}

func TestSyncLeafFailureIsolated(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))
	env.api.GetAccountsFunc = func(ctx context.Context, itemID string) (*provider.AccountResponse, error) {
		return &provider.AccountResponse{Success: true, Data: []provider.Account{
			{ID: "acc-1", Subtype: "CHECKING_ACCOUNT", Name: "Checking", CurrencyCode: "BRL", BalanceString: "100.00"},
			{ID: "acc-2", Subtype: "SAVINGS_ACCOUNT", Name: "Savings", CurrencyCode: "BRL", BalanceString: "250.50"},
		}}, nil
	}
	env.api.GetTransactionsFunc = func(ctx context.Context, accountID string, pageSize int) (*provider.TransactionResponse, error) {
		if accountID == "acc-1" {
			return nil, errors.New("timeout")
		}
		return &provider.TransactionResponse{Success: true, Data: []provider.Transaction{
			{ID: "tx-1", DateString: "2026-08-01", Description: "coffee", AmountString: "-12.50", CurrencyCode: "BRL"},
		}}, nil
	}

	result, err := env.svc.Sync(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("leaf failure must not abort the sync: %v", err)
	}
	if result.Accounts != 2 {
		t.Errorf("expected both accounts upserted, got %d", result.Accounts)
	}
	if result.Transactions != 1 {
		t.Errorf("expected the healthy account's transaction, got %d", result.Transactions)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected exactly one swallowed error, got %v", result.Errors)
	}
	if env.connections.SyncRecords[len(env.connections.SyncRecords)-1] != ledger.SyncStatusOK {
		t.Error("sync with only leaf failures must still record ok")
	}
}

func TestSyncSynthesizedTransactionID(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))
	env.api.GetAccountsFunc = func(ctx context.Context, itemID string) (*provider.AccountResponse, error) {
		return &provider.AccountResponse{Success: true, Data: []provider.Account{
			{ID: "acc-1", Subtype: "CHECKING_ACCOUNT", Name: "Checking", CurrencyCode: "BRL", BalanceString: "0"},
		}}, nil
	}
	env.api.GetTransactionsFunc = func(ctx context.Context, accountID string, pageSize int) (*provider.TransactionResponse, error) {
		return &provider.TransactionResponse{Success: true, Data: []provider.Transaction{
			{DateString: "2026-08-15", Description: "no id", AmountString: "-42.00", CurrencyCode: "BRL"},
		}}, nil
	}

	if _, err := env.svc.Sync(context.Background(), 10, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := env.txs.Upserts[0].ExternalID
	if first == "" {
		t.Fatal("expected a synthesized external id")
	}

	// A re-sync of the same payload must target the same natural key.
	env.connections.Connections[1].LastSyncAt = nil
	if _, err := env.svc.Sync(context.Background(), 10, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := env.txs.Upserts[1].ExternalID
	if first != second {
		t.Errorf("synthesized ids differ across syncs: %q vs %q", first, second)
	}
}

func TestSyncInvoiceItemsUseReturnedInvoiceID(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))
	env.api.GetCreditCardsFunc = func(ctx context.Context, itemID string) (*provider.CreditCardResponse, error) {
		return &provider.CreditCardResponse{Success: true, Data: []provider.CreditCard{
			{ID: "card-1", Name: "Black", CurrencyCode: "BRL", LimitString: "5000.00"},
		}}, nil
	}
	env.api.GetCardInvoicesFunc = func(ctx context.Context, cardID string) (*provider.InvoiceResponse, error) {
		return &provider.InvoiceResponse{Success: true, Data: []provider.Invoice{
			{
				ID:                "inv-1",
				DueDateString:     "2026-09-10",
				TotalAmountString: "1234.56",
				Status:            "OPEN",
				Items: []provider.InvoiceItem{
					{ID: "it-1", DateString: "2026-08-20", Description: "dinner", AmountString: "-89.90"},
					{ID: "it-2", DateString: "2026-08-21", Description: "fuel", AmountString: "-150.00"},
				},
			},
		}}, nil
	}

	result, err := env.svc.Sync(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cards != 1 || result.Invoices != 1 || result.InvoiceItems != 2 {
		t.Fatalf("unexpected counters: cards=%d invoices=%d items=%d", result.Cards, result.Invoices, result.InvoiceItems)
	}
	// UpsertInvoice in the mock returns id 101 for the first invoice.
	for _, item := range env.cards.ItemUpserts {
		if item.InvoiceID != 101 {
			t.Errorf("item upsert used invoice id %d, want the returned 101", item.InvoiceID)
		}
	}
}

func TestSyncInvestmentAssetResolution(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))
	env.api.GetInvestmentsFunc = func(ctx context.Context, itemID string) (*provider.InvestmentResponse, error) {
		q, p := "10", "25.00"
		v := "300.00"
		return &provider.InvestmentResponse{Success: true, Data: []provider.Investment{
			{ID: "inv-1", Symbol: "PETR4", Name: "Petrobras PN", TypeCode: "EQUITY", CurrencyCode: "BRL", QuantityString: &q, PriceString: &p},
			{ID: "inv-2", Name: "CDB Banco X", TypeCode: "FIXED_INCOME", CurrencyCode: "BRL", ValueString: &v},
		}}, nil
	}

	result, err := env.svc.Sync(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Holdings != 2 {
		t.Fatalf("expected 2 holdings, got %d", result.Holdings)
	}
	if len(env.investments.AssetCreates) != 1 {
		t.Fatalf("expected one lazily created asset, got %d", len(env.investments.AssetCreates))
	}
	if env.investments.AssetCreates[0].Class != ledger.AssetEquities {
		t.Errorf("asset class = %s, want equities", env.investments.AssetCreates[0].Class)
	}

	withSymbol := env.investments.HoldingUpserts[0]
	if withSymbol.AssetID == nil || withSymbol.AssetKey != "asset:1" {
		t.Errorf("symbol-bearing holding not keyed by asset: %+v", withSymbol)
	}
	// quantity * price derived the missing market value
	if withSymbol.MarketValueCents != 25000 {
		t.Errorf("derived value = %d cents, want 25000", withSymbol.MarketValueCents)
	}

	byName := env.investments.HoldingUpserts[1]
	if byName.AssetID != nil || byName.AssetKey != "name:CDB Banco X" {
		t.Errorf("name-fallback holding wrongly keyed: %+v", byName)
	}
	if byName.MarketValueCents != 30000 {
		t.Errorf("value = %d cents, want 30000", byName.MarketValueCents)
	}
}

func TestDeriveHoldingFigures(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	c := func(v int64) *int64 { return &v }

	tests := []struct {
		name     string
		quantity *float64
		price    *int64
		value    *int64
		wantQty  *float64
		wantVal  *int64
	}{
		{name: "Value Derived", quantity: f(10), price: c(2500), wantQty: f(10), wantVal: c(25000)},
		{name: "Quantity Derived", price: c(2500), value: c(25000), wantQty: f(10), wantVal: c(25000)},
		{name: "All Present", quantity: f(3), price: c(100), value: c(305), wantQty: f(3), wantVal: c(305)},
		{name: "Only Value", value: c(9900), wantQty: nil, wantVal: c(9900)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, _, val := deriveHoldingFigures(tt.quantity, tt.price, tt.value)
			if (qty == nil) != (tt.wantQty == nil) || (qty != nil && *qty != *tt.wantQty) {
				t.Errorf("quantity = %v, want %v", qty, tt.wantQty)
			}
			if (val == nil) != (tt.wantVal == nil) || (val != nil && *val != *tt.wantVal) {
				t.Errorf("value = %v, want %v", val, tt.wantVal)
			}
		})
	}
}

func TestRefreshInstitutions(t *testing.T) {
	env := newTestEnv()
	env.api.ListInstitutionsFunc = func(ctx context.Context) (*provider.InstitutionResponse, error) {
		return &provider.InstitutionResponse{Success: true, Data: []provider.Institution{
			{ID: "201", Name: "Itau", Enabled: true},
			{ID: "202", Name: "Nubank", Enabled: true},
		}}, nil
	}

	count, err := env.svc.RefreshInstitutions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 || len(env.insts.Upserts) != 2 {
		t.Errorf("expected 2 institutions upserted, got count=%d upserts=%d", count, len(env.insts.Upserts))
	}
	if env.insts.Upserts[0].Provider != "pluggy" {
		t.Errorf("provider = %q, want pluggy", env.insts.Upserts[0].Provider)
	}
}
