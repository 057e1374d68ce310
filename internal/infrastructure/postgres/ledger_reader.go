package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// LedgerReader serves reads from the unified ledger tables. List methods
// delegate to the write-side repositories; aggregate totals run their own
// queries.
type LedgerReader struct {
	db           *DB
	accounts     *AccountRepository
	transactions *TransactionRepository
	cards        *CardRepository
}

// Ensure LedgerReader implements the read surface.
var _ ledger.Reader = (*LedgerReader)(nil)

// NewLedgerReader creates the unified-ledger read surface.
func NewLedgerReader(db *DB) *LedgerReader {
	return &LedgerReader{
		db:           db,
		accounts:     NewAccountRepository(db),
		transactions: NewTransactionRepository(db),
		cards:        NewCardRepository(db),
	}
}

func (r *LedgerReader) ListAccounts(ctx context.Context, userID int64) ([]*ledger.BankAccount, error) {
	return r.accounts.ListByUserID(ctx, userID)
}

func (r *LedgerReader) ListTransactions(ctx context.Context, userID int64, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	return r.transactions.ListByUserID(ctx, userID, filter)
}

func (r *LedgerReader) ListCards(ctx context.Context, userID int64) ([]*ledger.CreditCard, error) {
	return r.cards.ListCardsByUserID(ctx, userID)
}

// ListHoldings returns the latest snapshot per position.
func (r *LedgerReader) ListHoldings(ctx context.Context, userID int64) ([]*ledger.Holding, error) {
	query := `
		SELECT DISTINCT ON (connection_id, asset_key)
		       id, user_id, connection_id, asset_id, asset_name, asset_key,
		       quantity, price_cents, market_value_cents, as_of_date, created_at, updated_at
		FROM holdings
		WHERE user_id = $1
		ORDER BY connection_id, asset_key, as_of_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*ledger.Holding
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, holding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

// TransactionsInWindow returns all transactions in [from, to], oldest first.
func (r *LedgerReader) TransactionsInWindow(ctx context.Context, userID int64, from, to time.Time) ([]*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction window: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// TotalCashCents sums current bank account balances.
func (r *LedgerReader) TotalCashCents(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(balance_cents), 0) FROM bank_accounts WHERE user_id = $1`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to total cash balances: %w", err)
	}
	return total, nil
}

// TotalInvestmentCents sums the latest snapshot per position.
func (r *LedgerReader) TotalInvestmentCents(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(market_value_cents), 0)
		FROM (
			SELECT DISTINCT ON (connection_id, asset_key) market_value_cents
			FROM holdings
			WHERE user_id = $1
			ORDER BY connection_id, asset_key, as_of_date DESC
		) latest`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to total investments: %w", err)
	}
	return total, nil
}
