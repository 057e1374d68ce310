package provider

import "context"

// API is the aggregator surface the sync engine consumes. Primary-fetch
// failures propagate as sync failure; nested-fetch failures are the
// caller's responsibility to isolate.
type API interface {
	ListInstitutions(ctx context.Context) (*InstitutionResponse, error)
	GetItem(ctx context.Context, itemID string) (*Item, error)
	GetAccounts(ctx context.Context, itemID string) (*AccountResponse, error)
	GetTransactions(ctx context.Context, accountID string, pageSize int) (*TransactionResponse, error)
	GetCreditCards(ctx context.Context, itemID string) (*CreditCardResponse, error)
	GetCardInvoices(ctx context.Context, cardID string) (*InvoiceResponse, error)
	GetInvestments(ctx context.Context, itemID string) (*InvestmentResponse, error)
	UpdateItem(ctx context.Context, itemID string) (*Item, error)
	DeleteItem(ctx context.Context, itemID string) error
}
