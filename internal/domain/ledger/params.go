package ledger

import (
	"encoding/json"
	"errors"
	"time"
)

// CreateConnectionParams contains parameters for linking a new connection.
type CreateConnectionParams struct {
	UserID         int64
	Provider       string
	InstitutionID  *int64
	ExternalItemID string
	Status         ConnectionStatus
}

func (p CreateConnectionParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.ExternalItemID == "" {
		return errors.New("external item ID is required")
	}
	if p.Provider == "" {
		return errors.New("provider is required")
	}
	return nil
}

// UpsertInstitutionParams upserts on (provider, external_id).
type UpsertInstitutionParams struct {
	Provider   string
	ExternalID string
	Name       string
	LogoURL    string
	Enabled    bool
}

// UpsertAccountParams upserts on (user_id, external_id).
type UpsertAccountParams struct {
	UserID          int64
	ConnectionID    int64
	ExternalID      string
	Type            BankAccountType
	Name            string
	Currency        string
	BalanceCents    int64
	LastRefreshedAt time.Time
}

func (p UpsertAccountParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external account ID is required")
	}
	if p.Type != AccountChecking && p.Type != AccountSavings {
		return errors.New("invalid account type")
	}
	if p.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

// UpsertTransactionParams upserts on (user_id, external_id). Category is
// only written when the row's manual-override marker is not set.
type UpsertTransactionParams struct {
	UserID      int64
	AccountID   int64
	ExternalID  string
	OccurredAt  time.Time
	Description string
	Merchant    string
	Category    *string
	AmountCents int64
	Currency    string
	Raw         json.RawMessage
}

func (p UpsertTransactionParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external transaction ID is required")
	}
	if p.OccurredAt.IsZero() {
		return errors.New("transaction date is required")
	}
	return nil
}

// UpsertCardParams upserts on (user_id, external_id).
type UpsertCardParams struct {
	UserID       int64
	ConnectionID int64
	ExternalID   string
	Name         string
	Brand        string
	Last4        string
	Currency     string
	LimitCents   int64
}

// UpsertInvoiceParams upserts on (user_id, external_id). The upsert
// returns the generated invoice id, which callers pass directly to item
// upserts instead of re-resolving the parent by natural key.
type UpsertInvoiceParams struct {
	UserID       int64
	CardID       int64
	ExternalID   string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	DueDate      time.Time
	TotalCents   int64
	MinimumCents int64
	Status       string
}

// UpsertInvoiceItemParams upserts on (user_id, external_id).
type UpsertInvoiceItemParams struct {
	UserID      int64
	InvoiceID   int64
	ExternalID  string
	OccurredAt  time.Time
	Description string
	Merchant    string
	Category    *string
	AmountCents int64
	Raw         json.RawMessage
}

// CreateAssetParams creates an asset on first reference.
type CreateAssetParams struct {
	Symbol   string
	Name     string
	Class    AssetClass
	Currency string
}

// UpsertHoldingParams upserts today's snapshot on
// (user_id, connection_id, asset_key, as_of_date).
type UpsertHoldingParams struct {
	UserID           int64
	ConnectionID     int64
	AssetID          *int64
	AssetName        string
	AssetKey         string
	Quantity         float64
	PriceCents       int64
	MarketValueCents int64
	AsOfDate         time.Time
}

func (p UpsertHoldingParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.AssetKey == "" {
		return errors.New("resolved asset key is required")
	}
	if p.AsOfDate.IsZero() {
		return errors.New("snapshot date is required")
	}
	return nil
}

// TransactionFilter narrows transaction reads.
type TransactionFilter struct {
	AccountID *int64
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
