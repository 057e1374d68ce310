package ledger

import (
	"context"
	"time"
)

// ConnectionRepository persists provider connections.
type ConnectionRepository interface {
	Create(ctx context.Context, params CreateConnectionParams) (*Connection, error)
	GetByID(ctx context.Context, id int64) (*Connection, error)

	// GetByExternalItemID returns nil, nil when no connection matches;
	// webhooks for unknown items are not an error.
	GetByExternalItemID(ctx context.Context, externalItemID string) (*Connection, error)

	ListByUserID(ctx context.Context, userID int64) ([]*Connection, error)

	// ListConnected returns every connection eligible for scheduled resync.
	ListConnected(ctx context.Context) ([]*Connection, error)

	UpdateStatus(ctx context.Context, id int64, status ConnectionStatus) error

	// RecordSyncResult stamps last_sync_at/status/error after a sync attempt.
	RecordSyncResult(ctx context.Context, id int64, at time.Time, status string, syncErr *string) error

	Delete(ctx context.Context, id int64) error
}

// InstitutionRepository persists the provider's institution catalog.
type InstitutionRepository interface {
	Upsert(ctx context.Context, params UpsertInstitutionParams) (*Institution, error)
	List(ctx context.Context) ([]*Institution, error)
}

// AccountRepository persists bank accounts.
type AccountRepository interface {
	Upsert(ctx context.Context, params UpsertAccountParams) (*BankAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*BankAccount, error)
}

// TransactionRepository persists ledger transactions.
type TransactionRepository interface {
	Upsert(ctx context.Context, params UpsertTransactionParams) (*Transaction, error)
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	ListByUserID(ctx context.Context, userID int64, filter TransactionFilter) ([]*Transaction, error)

	// SetCategory records an explicit user edit and sets the
	// manual-override marker so future syncs and heuristics leave it alone.
	SetCategory(ctx context.Context, id, userID int64, category string) error
}

// CardRepository persists credit cards, their invoices and invoice items.
type CardRepository interface {
	UpsertCard(ctx context.Context, params UpsertCardParams) (*CreditCard, error)
	UpsertInvoice(ctx context.Context, params UpsertInvoiceParams) (*CardInvoice, error)
	UpsertInvoiceItem(ctx context.Context, params UpsertInvoiceItemParams) (*InvoiceItem, error)
	ListCardsByUserID(ctx context.Context, userID int64) ([]*CreditCard, error)
	ListInvoicesByCardID(ctx context.Context, userID, cardID int64) ([]*CardInvoice, error)
}

// InvestmentRepository persists assets and daily holding snapshots.
type InvestmentRepository interface {
	// FindAsset returns nil, nil when no asset matches (symbol, currency).
	FindAsset(ctx context.Context, symbol, currency string) (*Asset, error)
	CreateAsset(ctx context.Context, params CreateAssetParams) (*Asset, error)
	UpsertHolding(ctx context.Context, params UpsertHoldingParams) (*Holding, error)
}

// Reader is the read surface consumed by list endpoints and analytics.
// The dual-source resolver returns one implementation per request —
// either the unified ledger or the legacy per-provider tables — and the
// entire response is sourced from that one implementation.
type Reader interface {
	ListAccounts(ctx context.Context, userID int64) ([]*BankAccount, error)
	ListTransactions(ctx context.Context, userID int64, filter TransactionFilter) ([]*Transaction, error)
	ListCards(ctx context.Context, userID int64) ([]*CreditCard, error)

	// ListHoldings returns the latest snapshot per asset.
	ListHoldings(ctx context.Context, userID int64) ([]*Holding, error)

	TransactionsInWindow(ctx context.Context, userID int64, from, to time.Time) ([]*Transaction, error)
	TotalCashCents(ctx context.Context, userID int64) (int64, error)
	TotalInvestmentCents(ctx context.Context, userID int64) (int64, error)
}
