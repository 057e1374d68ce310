package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/provider"
)

// mockAPI is a provider.API test double. Unset funcs return empty
// successful responses; Calls counts every provider round trip. The
// detached resync hits the API from several goroutines, hence the mutex.
type mockAPI struct {
	mu                   stdsync.Mutex
	Calls                int
	ListInstitutionsFunc func(ctx context.Context) (*provider.InstitutionResponse, error)
	GetItemFunc          func(ctx context.Context, itemID string) (*provider.Item, error)
	GetAccountsFunc      func(ctx context.Context, itemID string) (*provider.AccountResponse, error)
	GetTransactionsFunc  func(ctx context.Context, accountID string, pageSize int) (*provider.TransactionResponse, error)
	GetCreditCardsFunc   func(ctx context.Context, itemID string) (*provider.CreditCardResponse, error)
	GetCardInvoicesFunc  func(ctx context.Context, cardID string) (*provider.InvoiceResponse, error)
	GetInvestmentsFunc   func(ctx context.Context, itemID string) (*provider.InvestmentResponse, error)
	UpdateItemFunc       func(ctx context.Context, itemID string) (*provider.Item, error)
	DeleteItemFunc       func(ctx context.Context, itemID string) error
}

func (m *mockAPI) bump() {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
}

func (m *mockAPI) ListInstitutions(ctx context.Context) (*provider.InstitutionResponse, error) {
	m.bump()
	if m.ListInstitutionsFunc != nil {
		return m.ListInstitutionsFunc(ctx)
	}
	return &provider.InstitutionResponse{Success: true}, nil
}

func (m *mockAPI) GetItem(ctx context.Context, itemID string) (*provider.Item, error) {
	m.bump()
	if m.GetItemFunc != nil {
		return m.GetItemFunc(ctx, itemID)
	}
	return &provider.Item{ID: itemID, Status: provider.ItemUpdated}, nil
}

func (m *mockAPI) GetAccounts(ctx context.Context, itemID string) (*provider.AccountResponse, error) {
	m.bump()
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, itemID)
	}
	return &provider.AccountResponse{Success: true}, nil
}

func (m *mockAPI) GetTransactions(ctx context.Context, accountID string, pageSize int) (*provider.TransactionResponse, error) {
	m.bump()
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accountID, pageSize)
	}
	return &provider.TransactionResponse{Success: true}, nil
}

func (m *mockAPI) GetCreditCards(ctx context.Context, itemID string) (*provider.CreditCardResponse, error) {
	m.bump()
	if m.GetCreditCardsFunc != nil {
		return m.GetCreditCardsFunc(ctx, itemID)
	}
	return &provider.CreditCardResponse{Success: true}, nil
}

func (m *mockAPI) GetCardInvoices(ctx context.Context, cardID string) (*provider.InvoiceResponse, error) {
	m.bump()
	if m.GetCardInvoicesFunc != nil {
		return m.GetCardInvoicesFunc(ctx, cardID)
	}
	return &provider.InvoiceResponse{Success: true}, nil
}

func (m *mockAPI) GetInvestments(ctx context.Context, itemID string) (*provider.InvestmentResponse, error) {
	m.bump()
	if m.GetInvestmentsFunc != nil {
		return m.GetInvestmentsFunc(ctx, itemID)
	}
	return &provider.InvestmentResponse{Success: true}, nil
}

func (m *mockAPI) UpdateItem(ctx context.Context, itemID string) (*provider.Item, error) {
	m.bump()
	if m.UpdateItemFunc != nil {
		return m.UpdateItemFunc(ctx, itemID)
	}
	return &provider.Item{ID: itemID, Status: provider.ItemUpdating}, nil
}

func (m *mockAPI) DeleteItem(ctx context.Context, itemID string) error {
	m.bump()
	if m.DeleteItemFunc != nil {
		return m.DeleteItemFunc(ctx, itemID)
	}
	return nil
}

// mockConnectionRepo backs connection reads with a fixed set and records
// lifecycle writes.
type mockConnectionRepo struct {
	Connections    map[int64]*ledger.Connection
	StatusUpdates  []ledger.ConnectionStatus
	SyncRecords    []string
	LastSyncErrors []*string
	Deleted        []int64
	CreateFunc     func(ctx context.Context, params ledger.CreateConnectionParams) (*ledger.Connection, error)
}

func (m *mockConnectionRepo) Create(ctx context.Context, params ledger.CreateConnectionParams) (*ledger.Connection, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	conn := &ledger.Connection{
		ID:             int64(len(m.Connections) + 1),
		UserID:         params.UserID,
		Provider:       params.Provider,
		InstitutionID:  params.InstitutionID,
		ExternalItemID: params.ExternalItemID,
		Status:         params.Status,
		CreatedAt:      time.Now(),
	}
	if m.Connections == nil {
		m.Connections = map[int64]*ledger.Connection{}
	}
	m.Connections[conn.ID] = conn
	return conn, nil
}

func (m *mockConnectionRepo) GetByID(ctx context.Context, id int64) (*ledger.Connection, error) {
	return m.Connections[id], nil
}

func (m *mockConnectionRepo) GetByExternalItemID(ctx context.Context, externalItemID string) (*ledger.Connection, error) {
	for _, conn := range m.Connections {
		if conn.ExternalItemID == externalItemID {
			return conn, nil
		}
	}
	return nil, nil
}

func (m *mockConnectionRepo) ListByUserID(ctx context.Context, userID int64) ([]*ledger.Connection, error) {
	var out []*ledger.Connection
	for _, conn := range m.Connections {
		if conn.UserID == userID {
			out = append(out, conn)
		}
	}
	return out, nil
}

func (m *mockConnectionRepo) ListConnected(ctx context.Context) ([]*ledger.Connection, error) {
	var out []*ledger.Connection
	for _, conn := range m.Connections {
		if conn.Status == ledger.StatusConnected {
			out = append(out, conn)
		}
	}
	return out, nil
}

func (m *mockConnectionRepo) UpdateStatus(ctx context.Context, id int64, status ledger.ConnectionStatus) error {
	m.StatusUpdates = append(m.StatusUpdates, status)
	if conn, ok := m.Connections[id]; ok {
		conn.Status = status
	}
	return nil
}

func (m *mockConnectionRepo) RecordSyncResult(ctx context.Context, id int64, at time.Time, status string, syncErr *string) error {
	m.SyncRecords = append(m.SyncRecords, status)
	m.LastSyncErrors = append(m.LastSyncErrors, syncErr)
	if conn, ok := m.Connections[id]; ok {
		conn.LastSyncAt = &at
		conn.LastSyncStatus = status
	}
	return nil
}

func (m *mockConnectionRepo) Delete(ctx context.Context, id int64) error {
	m.Deleted = append(m.Deleted, id)
	delete(m.Connections, id)
	return nil
}

type mockInstitutionRepo struct {
	Upserts []ledger.UpsertInstitutionParams
}

func (m *mockInstitutionRepo) Upsert(ctx context.Context, params ledger.UpsertInstitutionParams) (*ledger.Institution, error) {
	m.Upserts = append(m.Upserts, params)
	return &ledger.Institution{ID: int64(len(m.Upserts)), Name: params.Name}, nil
}

func (m *mockInstitutionRepo) List(ctx context.Context) ([]*ledger.Institution, error) {
	return nil, nil
}

type mockAccountRepo struct {
	Upserts    []ledger.UpsertAccountParams
	UpsertFunc func(ctx context.Context, params ledger.UpsertAccountParams) (*ledger.BankAccount, error)
}

func (m *mockAccountRepo) Upsert(ctx context.Context, params ledger.UpsertAccountParams) (*ledger.BankAccount, error) {
	m.Upserts = append(m.Upserts, params)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return &ledger.BankAccount{
		ID:         int64(len(m.Upserts)),
		UserID:     params.UserID,
		ExternalID: params.ExternalID,
		Currency:   params.Currency,
	}, nil
}

func (m *mockAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*ledger.BankAccount, error) {
	return nil, nil
}

type mockTransactionRepo struct {
	Upserts    []ledger.UpsertTransactionParams
	UpsertFunc func(ctx context.Context, params ledger.UpsertTransactionParams) (*ledger.Transaction, error)
}

func (m *mockTransactionRepo) Upsert(ctx context.Context, params ledger.UpsertTransactionParams) (*ledger.Transaction, error) {
	m.Upserts = append(m.Upserts, params)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return &ledger.Transaction{ID: int64(len(m.Upserts)), ExternalID: params.ExternalID}, nil
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id int64) (*ledger.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionRepo) ListByUserID(ctx context.Context, userID int64, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionRepo) SetCategory(ctx context.Context, id, userID int64, category string) error {
	return nil
}

type mockCardRepo struct {
	CardUpserts    []ledger.UpsertCardParams
	InvoiceUpserts []ledger.UpsertInvoiceParams
	ItemUpserts    []ledger.UpsertInvoiceItemParams
}

func (m *mockCardRepo) UpsertCard(ctx context.Context, params ledger.UpsertCardParams) (*ledger.CreditCard, error) {
	m.CardUpserts = append(m.CardUpserts, params)
	return &ledger.CreditCard{ID: int64(len(m.CardUpserts)), ExternalID: params.ExternalID}, nil
}

func (m *mockCardRepo) UpsertInvoice(ctx context.Context, params ledger.UpsertInvoiceParams) (*ledger.CardInvoice, error) {
	m.InvoiceUpserts = append(m.InvoiceUpserts, params)
	return &ledger.CardInvoice{ID: int64(len(m.InvoiceUpserts)) + 100, ExternalID: params.ExternalID}, nil
}

func (m *mockCardRepo) UpsertInvoiceItem(ctx context.Context, params ledger.UpsertInvoiceItemParams) (*ledger.InvoiceItem, error) {
	m.ItemUpserts = append(m.ItemUpserts, params)
	return &ledger.InvoiceItem{ID: int64(len(m.ItemUpserts)), ExternalID: params.ExternalID}, nil
}

func (m *mockCardRepo) ListCardsByUserID(ctx context.Context, userID int64) ([]*ledger.CreditCard, error) {
	return nil, nil
}

func (m *mockCardRepo) ListInvoicesByCardID(ctx context.Context, userID, cardID int64) ([]*ledger.CardInvoice, error) {
	return nil, nil
}

type mockInvestmentRepo struct {
	Assets         map[string]*ledger.Asset // keyed symbol|currency
	AssetCreates   []ledger.CreateAssetParams
	HoldingUpserts []ledger.UpsertHoldingParams
}

func (m *mockInvestmentRepo) FindAsset(ctx context.Context, symbol, currency string) (*ledger.Asset, error) {
	return m.Assets[symbol+"|"+currency], nil
}

func (m *mockInvestmentRepo) CreateAsset(ctx context.Context, params ledger.CreateAssetParams) (*ledger.Asset, error) {
	m.AssetCreates = append(m.AssetCreates, params)
	asset := &ledger.Asset{
		ID:       int64(len(m.AssetCreates)),
		Symbol:   params.Symbol,
		Name:     params.Name,
		Class:    params.Class,
		Currency: params.Currency,
	}
	if m.Assets == nil {
		m.Assets = map[string]*ledger.Asset{}
	}
	m.Assets[params.Symbol+"|"+params.Currency] = asset
	return asset, nil
}

func (m *mockInvestmentRepo) UpsertHolding(ctx context.Context, params ledger.UpsertHoldingParams) (*ledger.Holding, error) {
	m.HoldingUpserts = append(m.HoldingUpserts, params)
	return &ledger.Holding{ID: int64(len(m.HoldingUpserts)), AssetKey: params.AssetKey}, nil
}

type mockMessenger struct {
	Sent []string
}

func (m *mockMessenger) Send(ctx context.Context, userID int64, title, body string, data map[string]string) error {
	m.Sent = append(m.Sent, title)
	return nil
}

// testEnv bundles a service with its doubles.
type testEnv struct {
	svc         *Service
	api         *mockAPI
	connections *mockConnectionRepo
	accounts    *mockAccountRepo
	txs         *mockTransactionRepo
	cards       *mockCardRepo
	investments *mockInvestmentRepo
	insts       *mockInstitutionRepo
	messenger   *mockMessenger
}

func newTestEnv() *testEnv {
	env := &testEnv{
		api:         &mockAPI{},
		connections: &mockConnectionRepo{Connections: map[int64]*ledger.Connection{}},
		accounts:    &mockAccountRepo{},
		txs:         &mockTransactionRepo{},
		cards:       &mockCardRepo{},
		investments: &mockInvestmentRepo{},
		insts:       &mockInstitutionRepo{},
		messenger:   &mockMessenger{},
	}
	env.svc = NewService(
		env.api,
		env.connections,
		env.insts,
		env.accounts,
		env.txs,
		env.cards,
		env.investments,
		env.messenger,
		Config{Provider: "pluggy", ManualCooldown: 5 * time.Minute, PageSize: 500},
	)
	return env
}

func (e *testEnv) addConnection(conn *ledger.Connection) *ledger.Connection {
	e.connections.Connections[conn.ID] = conn
	return conn
}
