// Package ledger defines the normalized entities the sync engine writes
// and the read interfaces the API surface consumes. All monetary fields
// are signed integer minor units; negative = outflow, positive = inflow.
package ledger

import (
	"encoding/json"
	"errors"
	"time"
)

// Domain errors
var (
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("access forbidden")
	ErrInvalidInput        = errors.New("invalid input")
)

// ConnectionStatus is the internal lifecycle state of a provider connection.
type ConnectionStatus string

const (
	StatusPending     ConnectionStatus = "pending"
	StatusConnected   ConnectionStatus = "connected"
	StatusNeedsReauth ConnectionStatus = "needs_reauth"
	StatusFailed      ConnectionStatus = "failed"
)

// Sync outcome recorded on the connection after each attempt.
const (
	SyncStatusOK    = "ok"
	SyncStatusError = "error"
)

// Connection is one end-user's link to one institution at the provider.
// Natural key: (user_id, external_item_id).
type Connection struct {
	ID             int64            `json:"id"`
	UserID         int64            `json:"userId"`
	Provider       string           `json:"provider"`
	InstitutionID  *int64           `json:"institutionId,omitempty"`
	ExternalItemID string           `json:"externalItemId"`
	Status         ConnectionStatus `json:"status"`
	LastSyncAt     *time.Time       `json:"lastSyncAt,omitempty"`
	LastSyncStatus string           `json:"lastSyncStatus,omitempty"`
	LastSyncError  *string          `json:"lastSyncError,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Institution is a bank/brokerage listed by the provider.
// Natural key: (provider, external_id).
type Institution struct {
	ID         int64     `json:"id"`
	Provider   string    `json:"provider"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	LogoURL    string    `json:"logoUrl,omitempty"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BankAccountType is the normalized account subtype.
type BankAccountType string

const (
	AccountChecking BankAccountType = "checking"
	AccountSavings  BankAccountType = "savings"
)

// BankAccount is a cash account. Natural key: (user_id, external_id).
type BankAccount struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	ConnectionID    int64           `json:"connectionId"`
	ExternalID      string          `json:"externalId"`
	Type            BankAccountType `json:"type"`
	Name            string          `json:"name"`
	Currency        string          `json:"currency"`
	BalanceCents    int64           `json:"balanceCents"`
	LastRefreshedAt time.Time       `json:"lastRefreshedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Transaction is a signed ledger movement. Natural key: (user_id,
// external_id); for providers that omit ids the external id is
// synthesized deterministically from (account, date, amount).
type Transaction struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"userId"`
	AccountID      int64           `json:"accountId"`
	ExternalID     string          `json:"externalId"`
	OccurredAt     time.Time       `json:"occurredAt"`
	Description    string          `json:"description"`
	Merchant       string          `json:"merchant,omitempty"`
	Category       *string         `json:"category,omitempty"`
	CategoryLocked bool            `json:"categoryLocked"`
	AmountCents    int64           `json:"amountCents"`
	Currency       string          `json:"currency"`
	Raw            json.RawMessage `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CreditCard: natural key (user_id, external_id).
type CreditCard struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	ConnectionID int64     `json:"connectionId"`
	ExternalID   string    `json:"externalId"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand,omitempty"`
	Last4        string    `json:"last4,omitempty"`
	Currency     string    `json:"currency"`
	LimitCents   int64     `json:"limitCents"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CardInvoice: natural key (user_id, external_id).
type CardInvoice struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	CardID       int64     `json:"cardId"`
	ExternalID   string    `json:"externalId"`
	PeriodStart  time.Time `json:"periodStart"`
	PeriodEnd    time.Time `json:"periodEnd"`
	DueDate      time.Time `json:"dueDate"`
	TotalCents   int64     `json:"totalCents"`
	MinimumCents int64     `json:"minimumCents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// InvoiceItem: natural key (user_id, external_id), synthesized when absent.
type InvoiceItem struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	InvoiceID   int64           `json:"invoiceId"`
	ExternalID  string          `json:"externalId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant,omitempty"`
	Category    *string         `json:"category,omitempty"`
	AmountCents int64           `json:"amountCents"`
	Raw         json.RawMessage `json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// AssetClass buckets an investment for aggregation.
type AssetClass string

const (
	AssetFixedIncome AssetClass = "fixed_income"
	AssetEquities    AssetClass = "equities"
	AssetFunds       AssetClass = "funds"
	AssetETF         AssetClass = "etf"
	AssetREIT        AssetClass = "reit"
	AssetCash        AssetClass = "cash"
	AssetOther       AssetClass = "other"
)

// assetClassByTypeCode maps provider investment type codes to asset classes.
var assetClassByTypeCode = map[string]AssetClass{
	"FIXED_INCOME":     AssetFixedIncome,
	"SECURITY":         AssetFixedIncome,
	"EQUITY":           AssetEquities,
	"STOCK":            AssetEquities,
	"MUTUAL_FUND":      AssetFunds,
	"FUND":             AssetFunds,
	"ETF":              AssetETF,
	"REAL_ESTATE_FUND": AssetREIT,
	"REIT":             AssetREIT,
	"CASH":             AssetCash,
	"SAVINGS":          AssetCash,
	"COE":              AssetOther,
	"PENSION":          AssetOther,
}

// AssetClassFromTypeCode resolves a provider investment type code to an
// asset class, defaulting to "other" for unknown codes.
func AssetClassFromTypeCode(code string) AssetClass {
	if class, ok := assetClassByTypeCode[code]; ok {
		return class
	}
	return AssetOther
}

// Asset is created lazily when first referenced by an unmatched holding.
// Natural key: (symbol, currency).
type Asset struct {
	ID        int64      `json:"id"`
	Symbol    string     `json:"symbol"`
	Name      string     `json:"name"`
	Class     AssetClass `json:"class"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Holding is a daily snapshot of one investment position, updated in
// place when the same day is re-synced. AssetKey is the single resolved
// identity ("asset:<id>" or "name:<fallback>") computed at write time.
type Holding struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	ConnectionID     int64     `json:"connectionId"`
	AssetID          *int64    `json:"assetId,omitempty"`
	AssetName        string    `json:"assetName,omitempty"`
	AssetKey         string    `json:"-"`
	Quantity         float64   `json:"quantity"`
	PriceCents       int64     `json:"priceCents"`
	MarketValueCents int64     `json:"marketValueCents"`
	AsOfDate         time.Time `json:"asOfDate"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
