package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/money"
)

// Item statuses reported by the provider.
const (
	ItemUpdated            = "UPDATED"
	ItemUpdating           = "UPDATING"
	ItemWaitingUserAction  = "WAITING_USER_ACTION"
	ItemUserInput          = "USER_INPUT"
	ItemInvalidCredentials = "INVALID_CREDENTIALS"
	ItemLoginError         = "LOGIN_ERROR"
)

// ErrorResponse represents an error response from the API.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Institution is an entry of the provider's institution catalog.
type Institution struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Enabled  bool   `json:"enabled"`
}

type InstitutionResponse struct {
	Success bool          `json:"success"`
	Data    []Institution `json:"data"`
	Count   int           `json:"count"`
}

// Item is the provider-side grouping of one user's accounts at one
// institution.
type Item struct {
	ID            string `json:"id"`
	InstitutionID string `json:"connectorId"`
	Status        string `json:"status"`
	StatusDetail  string `json:"statusDetail,omitempty"`
	UpdatedAt     string `json:"updatedAt"`
}

type ItemResponse struct {
	Success bool  `json:"success"`
	Data    *Item `json:"data"`
}

// Account is a bank account payload. The API returns balances as strings.
type Account struct {
	ID            string `json:"id"`
	ItemID        string `json:"itemId"`
	Subtype       string `json:"subtype"` // CHECKING_ACCOUNT or SAVINGS_ACCOUNT
	Name          string `json:"name"`
	CurrencyCode  string `json:"currencyCode"`
	BalanceString string `json:"balance"`
}

// BalanceCents parses the balance string into signed cents.
func (a *Account) BalanceCents() (int64, error) {
	return money.ParseCents(a.BalanceString)
}

type AccountResponse struct {
	Success bool      `json:"success"`
	Data    []Account `json:"data"`
	Count   int       `json:"count"`
}

// Transaction is a transaction payload. Amounts are signed strings;
// negative = outflow.
type Transaction struct {
	ID           string  `json:"id"`
	AccountID    string  `json:"accountId"`
	DateString   string  `json:"date"` // "2025-09-28 03:00:00"
	Description  string  `json:"description"`
	Merchant     string  `json:"merchant,omitempty"`
	Category     *string `json:"category"`
	AmountString string  `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

// AmountCents parses the amount string into signed cents.
func (t *Transaction) AmountCents() (int64, error) {
	return money.ParseCents(t.AmountString)
}

// Date parses the transaction date.
func (t *Transaction) Date() (*time.Time, error) {
	return parseDate(t.DateString)
}

// RawJSON returns the payload re-encoded for raw storage.
func (t *Transaction) RawJSON() json.RawMessage {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil
	}
	return raw
}

type TransactionResponse struct {
	Success bool          `json:"success"`
	Data    []Transaction `json:"data"`
	Count   int           `json:"count"`
}

// CreditCard is a credit card payload.
type CreditCard struct {
	ID           string `json:"id"`
	ItemID       string `json:"itemId"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Last4        string `json:"lastFourDigits"`
	CurrencyCode string `json:"currencyCode"`
	LimitString  string `json:"creditLimit"`
}

// LimitCents parses the credit limit string into cents.
func (c *CreditCard) LimitCents() (int64, error) {
	return money.ParseCents(c.LimitString)
}

type CreditCardResponse struct {
	Success bool         `json:"success"`
	Data    []CreditCard `json:"data"`
	Count   int          `json:"count"`
}

// Invoice is a card invoice payload with its items nested.
type Invoice struct {
	ID                   string        `json:"id"`
	CardID               string        `json:"creditCardId"`
	PeriodStartString    string        `json:"periodStart"`
	PeriodEndString      string        `json:"periodEnd"`
	DueDateString        string        `json:"dueDate"`
	TotalAmountString    string        `json:"totalAmount"`
	MinimumPaymentString *string       `json:"minimumPayment"`
	Status               string        `json:"status"` // OPEN, CLOSED, OVERDUE, PAID
	Items                []InvoiceItem `json:"items"`
}

func (i *Invoice) PeriodStart() (*time.Time, error) { return parseDate(i.PeriodStartString) }
func (i *Invoice) PeriodEnd() (*time.Time, error)   { return parseDate(i.PeriodEndString) }
func (i *Invoice) DueDate() (*time.Time, error)     { return parseDate(i.DueDateString) }

// TotalCents parses the invoice total into signed cents.
func (i *Invoice) TotalCents() (int64, error) {
	return money.ParseCents(i.TotalAmountString)
}

// MinimumCents parses the minimum payment; missing means zero.
func (i *Invoice) MinimumCents() (int64, error) {
	if i.MinimumPaymentString == nil {
		return 0, nil
	}
	return money.ParseCents(*i.MinimumPaymentString)
}

type InvoiceResponse struct {
	Success bool      `json:"success"`
	Data    []Invoice `json:"data"`
	Count   int       `json:"count"`
}

// InvoiceItem is one charge inside an invoice.
type InvoiceItem struct {
	ID           string  `json:"id"`
	DateString   string  `json:"date"`
	Description  string  `json:"description"`
	Merchant     string  `json:"merchant,omitempty"`
	Category     *string `json:"category"`
	AmountString string  `json:"amount"`
}

func (it *InvoiceItem) Date() (*time.Time, error) { return parseDate(it.DateString) }

// AmountCents parses the item amount into signed cents.
func (it *InvoiceItem) AmountCents() (int64, error) {
	return money.ParseCents(it.AmountString)
}

// RawJSON returns the payload re-encoded for raw storage.
func (it *InvoiceItem) RawJSON() json.RawMessage {
	raw, err := json.Marshal(it)
	if err != nil {
		return nil
	}
	return raw
}

// Investment is an investment position payload. Any of quantity, price
// and value may be missing; the reconciler derives the missing one.
type Investment struct {
	ID             string  `json:"id"`
	ItemID         string  `json:"itemId"`
	Symbol         string  `json:"code,omitempty"`
	Name           string  `json:"name"`
	TypeCode       string  `json:"type"`
	CurrencyCode   string  `json:"currencyCode"`
	QuantityString *string `json:"quantity"`
	PriceString    *string `json:"lastUnitPrice"`
	ValueString    *string `json:"balance"`
}

// Quantity parses the position quantity; nil when absent.
func (inv *Investment) Quantity() (*float64, error) {
	return parseOptionalFloat(inv.QuantityString, "quantity")
}

// PriceCents parses the unit price into cents; nil when absent.
func (inv *Investment) PriceCents() (*int64, error) {
	return parseOptionalCents(inv.PriceString, "lastUnitPrice")
}

// ValueCents parses the market value into cents; nil when absent.
func (inv *Investment) ValueCents() (*int64, error) {
	return parseOptionalCents(inv.ValueString, "balance")
}

type InvestmentResponse struct {
	Success bool         `json:"success"`
	Data    []Investment `json:"data"`
	Count   int          `json:"count"`
}

var dateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateFormats {
		if parsed, err := time.Parse(layout, s); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("failed to parse date '%s'", s)
}

func parseOptionalCents(s *string, field string) (*int64, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	cents, err := money.ParseCents(*s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return &cents, nil
}

func parseOptionalFloat(s *string, field string) (*float64, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s '%s': %w", field, *s, err)
	}
	return &f, nil
}
