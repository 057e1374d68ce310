// Package sync reconciles provider payloads into the normalized ledger
// and drives the connection lifecycle. Primary fetch failures abort a
// sync and are recorded on the connection; leaf failures (one account's
// transactions, one invoice's items) are logged and never abort siblings.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/provider"
)

// ErrRateLimited is returned when a manual sync is requested within the
// cooldown window. No provider call is made in that case.
var ErrRateLimited = errors.New("sync requested too soon after the previous one")

// Messenger delivers best-effort push notifications about connection
// events. Implementations must never block a sync; failures are logged.
type Messenger interface {
	Send(ctx context.Context, userID int64, title, body string, data map[string]string) error
}

// Result carries upsert counters and the leaf errors swallowed during
// one sync pass.
type Result struct {
	ConnectionID int64
	Accounts     int
	Transactions int
	Cards        int
	Invoices     int
	InvoiceItems int
	Holdings     int
	Errors       []string
}

func (r *Result) merge(other *Result) {
	r.Accounts += other.Accounts
	r.Transactions += other.Transactions
	r.Cards += other.Cards
	r.Invoices += other.Invoices
	r.InvoiceItems += other.InvoiceItems
	r.Holdings += other.Holdings
	r.Errors = append(r.Errors, other.Errors...)
}

// Config tunes sync behavior.
type Config struct {
	Provider       string
	ManualCooldown time.Duration
	PageSize       int
}

// Service is the reconciliation engine.
type Service struct {
	client       provider.API
	connections  ledger.ConnectionRepository
	institutions ledger.InstitutionRepository
	accounts     ledger.AccountRepository
	transactions ledger.TransactionRepository
	cards        ledger.CardRepository
	investments  ledger.InvestmentRepository
	messenger    Messenger
	cfg          Config

	now func() time.Time
}

// NewService creates the reconciliation service. messenger may be nil.
func NewService(
	client provider.API,
	connections ledger.ConnectionRepository,
	institutions ledger.InstitutionRepository,
	accounts ledger.AccountRepository,
	transactions ledger.TransactionRepository,
	cards ledger.CardRepository,
	investments ledger.InvestmentRepository,
	messenger Messenger,
	cfg Config,
) *Service {
	if cfg.Provider == "" {
		cfg.Provider = "pluggy"
	}
	if cfg.ManualCooldown <= 0 {
		cfg.ManualCooldown = 5 * time.Minute
	}
	return &Service{
		client:       client,
		connections:  connections,
		institutions: institutions,
		accounts:     accounts,
		transactions: transactions,
		cards:        cards,
		investments:  investments,
		messenger:    messenger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Sync runs a manual sync for one connection, enforcing the cooldown
// before any provider call is made.
func (s *Service) Sync(ctx context.Context, userID, connectionID int64) (*Result, error) {
	conn, err := s.ownedConnection(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}

	if conn.LastSyncAt != nil && s.now().Sub(*conn.LastSyncAt) < s.cfg.ManualCooldown {
		return nil, ErrRateLimited
	}

	return s.syncConnection(ctx, conn)
}

// syncConnection runs a full reconciliation pass: item status, then the
// three entity-type passes in sequence.
func (s *Service) syncConnection(ctx context.Context, conn *ledger.Connection) (*Result, error) {
	started := s.now()
	result := &Result{ConnectionID: conn.ID}

	item, err := s.client.GetItem(ctx, conn.ExternalItemID)
	if err != nil {
		s.recordFailure(ctx, conn, started, err)
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}

	if err := s.connections.UpdateStatus(ctx, conn.ID, StatusOnLink(item.Status)); err != nil {
		log.Printf("Connection %d: failed to update status: %v", conn.ID, err)
	}

	for _, pass := range []struct {
		name string
		fn   func(context.Context, *ledger.Connection, *Result) error
	}{
		{"accounts", s.syncAccounts},
		{"cards", s.syncCards},
		{"investments", s.syncInvestments},
	} {
		if err := pass.fn(ctx, conn, result); err != nil {
			s.recordFailure(ctx, conn, started, err)
			return nil, fmt.Errorf("%s sync failed: %w", pass.name, err)
		}
	}

	if err := s.connections.RecordSyncResult(ctx, conn.ID, started, ledger.SyncStatusOK, nil); err != nil {
		log.Printf("Connection %d: failed to record sync result: %v", conn.ID, err)
	}

	log.Printf("Connection %d: sync complete - accounts=%d tx=%d cards=%d invoices=%d items=%d holdings=%d errors=%d",
		conn.ID, result.Accounts, result.Transactions, result.Cards,
		result.Invoices, result.InvoiceItems, result.Holdings, len(result.Errors))

	return result, nil
}

// syncAccounts upserts every bank account of the connection, then each
// account's transactions. A transaction-fetch failure is confined to its
// account; the account row itself still lands.
func (s *Service) syncAccounts(ctx context.Context, conn *ledger.Connection, result *Result) error {
	resp, err := s.client.GetAccounts(ctx, conn.ExternalItemID)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}

	for i := range resp.Data {
		if err := s.syncAccount(ctx, conn, &resp.Data[i], result); err != nil {
			errMsg := fmt.Sprintf("failed to sync account %s: %v", resp.Data[i].ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Connection %d: %s", conn.ID, errMsg)
		}
	}

	return nil
}

func (s *Service) syncAccount(ctx context.Context, conn *ledger.Connection, apiAccount *provider.Account, result *Result) error {
	balance, err := apiAccount.BalanceCents()
	if err != nil {
		return fmt.Errorf("failed to parse balance: %w", err)
	}

	account, err := s.accounts.Upsert(ctx, ledger.UpsertAccountParams{
		UserID:          conn.UserID,
		ConnectionID:    conn.ID,
		ExternalID:      apiAccount.ID,
		Type:            normalizeAccountType(apiAccount.Subtype),
		Name:            apiAccount.Name,
		Currency:        apiAccount.CurrencyCode,
		BalanceCents:    balance,
		LastRefreshedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	result.Accounts++

	if err := s.syncTransactions(ctx, conn, account, apiAccount.ID, result); err != nil {
		errMsg := fmt.Sprintf("failed to sync transactions for account %s: %v", apiAccount.ID, err)
		result.Errors = append(result.Errors, errMsg)
		log.Printf("Connection %d: %s", conn.ID, errMsg)
	}

	return nil
}

func (s *Service) syncTransactions(ctx context.Context, conn *ledger.Connection, account *ledger.BankAccount, externalAccountID string, result *Result) error {
	resp, err := s.client.GetTransactions(ctx, externalAccountID, s.cfg.PageSize)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}

	for i := range resp.Data {
		apiTx := &resp.Data[i]

		amount, err := apiTx.AmountCents()
		if err != nil {
			errMsg := fmt.Sprintf("failed to parse transaction %s amount: %v", apiTx.ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Connection %d: %s", conn.ID, errMsg)
			continue
		}

		occurredAt, err := apiTx.Date()
		if err != nil || occurredAt == nil {
			errMsg := fmt.Sprintf("transaction %s has no usable date: %v", apiTx.ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Connection %d: %s", conn.ID, errMsg)
			continue
		}

		externalID := apiTx.ID
		if externalID == "" {
			externalID = synthesizeID(externalAccountID, *occurredAt, amount)
		}

		currency := apiTx.CurrencyCode
		if currency == "" {
			currency = account.Currency
		}

		_, err = s.transactions.Upsert(ctx, ledger.UpsertTransactionParams{
			UserID:      conn.UserID,
			AccountID:   account.ID,
			ExternalID:  externalID,
			OccurredAt:  *occurredAt,
			Description: apiTx.Description,
			Merchant:    apiTx.Merchant,
			Category:    apiTx.Category,
			AmountCents: amount,
			Currency:    currency,
			Raw:         apiTx.RawJSON(),
		})
		if err != nil {
			return fmt.Errorf("failed to upsert transaction %s: %w", externalID, err)
		}
		result.Transactions++
	}

	return nil
}

// syncCards upserts each credit card, then its invoices and their items.
// The invoice upsert returns the generated invoice id which item writes
// use directly, so parent resolution never races with a concurrent sync.
func (s *Service) syncCards(ctx context.Context, conn *ledger.Connection, result *Result) error {
	resp, err := s.client.GetCreditCards(ctx, conn.ExternalItemID)
	if err != nil {
		return fmt.Errorf("failed to fetch credit cards: %w", err)
	}

	for i := range resp.Data {
		if err := s.syncCard(ctx, conn, &resp.Data[i], result); err != nil {
			errMsg := fmt.Sprintf("failed to sync card %s: %v", resp.Data[i].ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Connection %d: %s", conn.ID, errMsg)
		}
	}

	return nil
}

func (s *Service) syncCard(ctx context.Context, conn *ledger.Connection, apiCard *provider.CreditCard, result *Result) error {
	limit, err := apiCard.LimitCents()
	if err != nil {
		return fmt.Errorf("failed to parse credit limit: %w", err)
	}

	card, err := s.cards.UpsertCard(ctx, ledger.UpsertCardParams{
		UserID:       conn.UserID,
		ConnectionID: conn.ID,
		ExternalID:   apiCard.ID,
		Name:         apiCard.Name,
		Brand:        apiCard.Brand,
		Last4:        apiCard.Last4,
		Currency:     apiCard.CurrencyCode,
		LimitCents:   limit,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert card: %w", err)
	}
	result.Cards++

	invResp, err := s.client.GetCardInvoices(ctx, apiCard.ID)
	if err != nil {
		errMsg := fmt.Sprintf("failed to fetch invoices for card %s: %v", apiCard.ID, err)
		result.Errors = append(result.Errors, errMsg)
		log.Printf("Connection %d: %s", conn.ID, errMsg)
		return nil
	}

	for i := range invResp.Data {
		if err := s.syncInvoice(ctx, conn, card, &invResp.Data[i], result); err != nil {
			errMsg := fmt.Sprintf("failed to sync invoice %s: %v", invResp.Data[i].ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Connection %d: %s", conn.ID, errMsg)
		}
	}

	return nil
}

func (s *Service) syncInvoice(ctx context.Context, conn *ledger.Connection, card *ledger.CreditCard, apiInvoice *provider.Invoice, result *Result) error {
	total, err := apiInvoice.TotalCents()
	if err != nil {
		return fmt.Errorf("failed to parse invoice total: %w", err)
	}
	minimum, err := apiInvoice.MinimumCents()
	if err != nil {
		return fmt.Errorf("failed to parse minimum payment: %w", err)
	}
	dueDate, err := apiInvoice.DueDate()
	if err != nil || dueDate == nil {
		return fmt.Errorf("invoice due date is required: %v", err)
	}
	periodStart, err := apiInvoice.PeriodStart()
	if err != nil {
		return fmt.Errorf("failed to parse period start: %w", err)
	}
	periodEnd, err := apiInvoice.PeriodEnd()
	if err != nil {
		return fmt.Errorf("failed to parse period end: %w", err)
	}

	params := ledger.UpsertInvoiceParams{
		UserID:       conn.UserID,
		CardID:       card.ID,
		ExternalID:   apiInvoice.ID,
		DueDate:      *dueDate,
		TotalCents:   total,
		MinimumCents: minimum,
		Status:       apiInvoice.Status,
	}
	if periodStart != nil {
		params.PeriodStart = *periodStart
	}
	if periodEnd != nil {
		params.PeriodEnd = *periodEnd
	}

	invoice, err := s.cards.UpsertInvoice(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to upsert invoice: %w", err)
	}
	result.Invoices++

	for i := range apiInvoice.Items {
		if err := s.syncInvoiceItem(ctx, conn, invoice, apiInvoice.ID, &apiInvoice.Items[i]); err != nil {
			errMsg := fmt.Sprintf("failed to sync invoice item %s: %v", apiInvoice.Items[i].ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Connection %d: %s", conn.ID, errMsg)
			continue
		}
		result.InvoiceItems++
	}

	return nil
}

func (s *Service) syncInvoiceItem(ctx context.Context, conn *ledger.Connection, invoice *ledger.CardInvoice, externalInvoiceID string, apiItem *provider.InvoiceItem) error {
	amount, err := apiItem.AmountCents()
	if err != nil {
		return fmt.Errorf("failed to parse amount: %w", err)
	}
	occurredAt, err := apiItem.Date()
	if err != nil || occurredAt == nil {
		return fmt.Errorf("item date is required: %v", err)
	}

	externalID := apiItem.ID
	if externalID == "" {
		externalID = synthesizeID(externalInvoiceID, *occurredAt, amount)
	}

	_, err = s.cards.UpsertInvoiceItem(ctx, ledger.UpsertInvoiceItemParams{
		UserID:      conn.UserID,
		InvoiceID:   invoice.ID,
		ExternalID:  externalID,
		OccurredAt:  *occurredAt,
		Description: apiItem.Description,
		Merchant:    apiItem.Merchant,
		Category:    apiItem.Category,
		AmountCents: amount,
		Raw:         apiItem.RawJSON(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert invoice item: %w", err)
	}
	return nil
}

// syncInvestments resolves or lazily creates assets and upserts today's
// holding snapshot in place.
func (s *Service) syncInvestments(ctx context.Context, conn *ledger.Connection, result *Result) error {
	resp, err := s.client.GetInvestments(ctx, conn.ExternalItemID)
	if err != nil {
		return fmt.Errorf("failed to fetch investments: %w", err)
	}

	today := truncateToDay(s.now())

	for i := range resp.Data {
		if err := s.syncInvestment(ctx, conn, &resp.Data[i], today, result); err != nil {
			errMsg := fmt.Sprintf("failed to sync investment %s: %v", resp.Data[i].ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Connection %d: %s", conn.ID, errMsg)
		}
	}

	return nil
}

func (s *Service) syncInvestment(ctx context.Context, conn *ledger.Connection, apiInv *provider.Investment, today time.Time, result *Result) error {
	quantity, err := apiInv.Quantity()
	if err != nil {
		return err
	}
	price, err := apiInv.PriceCents()
	if err != nil {
		return err
	}
	value, err := apiInv.ValueCents()
	if err != nil {
		return err
	}
	quantity, price, value = deriveHoldingFigures(quantity, price, value)

	params := ledger.UpsertHoldingParams{
		UserID:       conn.UserID,
		ConnectionID: conn.ID,
		AssetName:    apiInv.Name,
		AsOfDate:     today,
	}
	if quantity != nil {
		params.Quantity = *quantity
	}
	if price != nil {
		params.PriceCents = *price
	}
	if value != nil {
		params.MarketValueCents = *value
	}

	// The holding identity is resolved once at write time: an asset row
	// when the payload carries a symbol, the position name otherwise.
	if apiInv.Symbol != "" {
		asset, err := s.resolveAsset(ctx, apiInv)
		if err != nil {
			return err
		}
		params.AssetID = &asset.ID
		params.AssetKey = fmt.Sprintf("asset:%d", asset.ID)
	} else {
		params.AssetKey = "name:" + apiInv.Name
	}

	if _, err := s.investments.UpsertHolding(ctx, params); err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	result.Holdings++
	return nil
}

func (s *Service) resolveAsset(ctx context.Context, apiInv *provider.Investment) (*ledger.Asset, error) {
	asset, err := s.investments.FindAsset(ctx, apiInv.Symbol, apiInv.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up asset: %w", err)
	}
	if asset != nil {
		return asset, nil
	}

	asset, err = s.investments.CreateAsset(ctx, ledger.CreateAssetParams{
		Symbol:   apiInv.Symbol,
		Name:     apiInv.Name,
		Class:    ledger.AssetClassFromTypeCode(apiInv.TypeCode),
		Currency: apiInv.CurrencyCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}
	return asset, nil
}

// RefreshInstitutions upserts the provider's institution catalog.
func (s *Service) RefreshInstitutions(ctx context.Context) (int, error) {
	resp, err := s.client.ListInstitutions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch institutions: %w", err)
	}

	count := 0
	for _, inst := range resp.Data {
		_, err := s.institutions.Upsert(ctx, ledger.UpsertInstitutionParams{
			Provider:   s.cfg.Provider,
			ExternalID: inst.ID,
			Name:       inst.Name,
			LogoURL:    inst.ImageURL,
			Enabled:    inst.Enabled,
		})
		if err != nil {
			log.Printf("Failed to upsert institution %s: %v", inst.ID, err)
			continue
		}
		count++
	}
	return count, nil
}

func (s *Service) ownedConnection(ctx context.Context, userID, connectionID int64) (*ledger.Connection, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ledger.ErrConnectionNotFound
	}
	if conn.UserID != userID {
		return nil, ledger.ErrForbidden
	}
	return conn, nil
}

func (s *Service) recordFailure(ctx context.Context, conn *ledger.Connection, at time.Time, cause error) {
	msg := cause.Error()
	if err := s.connections.RecordSyncResult(ctx, conn.ID, at, ledger.SyncStatusError, &msg); err != nil {
		log.Printf("Connection %d: failed to record sync failure: %v", conn.ID, err)
	}
}

// deriveHoldingFigures fills in whichever of quantity/price/value the
// payload omitted, using value = price * quantity.
func deriveHoldingFigures(quantity *float64, priceCents, valueCents *int64) (*float64, *int64, *int64) {
	switch {
	case valueCents == nil && priceCents != nil && quantity != nil:
		v := decimal.NewFromInt(*priceCents).Mul(decimal.NewFromFloat(*quantity)).Round(0).IntPart()
		valueCents = &v
	case priceCents == nil && valueCents != nil && quantity != nil && *quantity > 0:
		p := decimal.NewFromInt(*valueCents).Div(decimal.NewFromFloat(*quantity)).Round(0).IntPart()
		priceCents = &p
	case quantity == nil && valueCents != nil && priceCents != nil && *priceCents > 0:
		q, _ := decimal.NewFromInt(*valueCents).Div(decimal.NewFromInt(*priceCents)).Float64()
		quantity = &q
	}
	return quantity, priceCents, valueCents
}

func normalizeAccountType(subtype string) ledger.BankAccountType {
	if subtype == "SAVINGS_ACCOUNT" {
		return ledger.AccountSavings
	}
	return ledger.AccountChecking
}

// synthesizeID builds a deterministic external id for payloads that
// arrive without one, so re-syncs stay idempotent.
func synthesizeID(parentExternalID string, occurredAt time.Time, amountCents int64) string {
	seed := fmt.Sprintf("%s|%s|%d", parentExternalID, occurredAt.Format("2006-01-02"), amountCents)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
