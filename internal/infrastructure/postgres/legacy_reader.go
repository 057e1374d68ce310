package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// pqUndefinedTable is the PostgreSQL error code for a missing relation.
const pqUndefinedTable = "42P01"

// LegacyReader serves reads from the pre-migration per-provider tables.
// Deployments that never ran the legacy schema simply don't have these
// tables, so every query treats undefined_table as an empty result
// rather than an error.
type LegacyReader struct {
	db *DB
}

// Ensure LegacyReader implements the read surface.
var _ ledger.Reader = (*LegacyReader)(nil)

// NewLegacyReader creates the legacy-table read surface.
func NewLegacyReader(db *DB) *LegacyReader {
	return &LegacyReader{db: db}
}

// HasLegacyData reports whether any legacy table holds a row for the
// user. This is the per-request capability probe: the resolver calls it
// once and the verdict holds for the whole response.
func (r *LegacyReader) HasLegacyData(ctx context.Context, userID int64) (bool, error) {
	probes := []string{
		`SELECT EXISTS(SELECT 1 FROM pluggy_accounts WHERE user_id = $1)`,
		`SELECT EXISTS(SELECT 1 FROM pluggy_transactions WHERE user_id = $1)`,
		`SELECT EXISTS(SELECT 1 FROM pluggy_credit_cards WHERE user_id = $1)`,
		`SELECT EXISTS(SELECT 1 FROM pluggy_investments WHERE user_id = $1)`,
	}

	for _, probe := range probes {
		var exists bool
		err := r.db.QueryRowContext(ctx, probe, userID).Scan(&exists)
		if isUndefinedTable(err) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to probe legacy tables: %w", err)
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

func (r *LegacyReader) ListAccounts(ctx context.Context, userID int64) ([]*ledger.BankAccount, error) {
	query := `
		SELECT id, user_id, pluggy_account_id, name, subtype, currency_code, balance_cents, created_at, updated_at
		FROM pluggy_accounts
		WHERE user_id = $1
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*ledger.BankAccount
	for rows.Next() {
		var account ledger.BankAccount
		var subtype sql.NullString

		err := rows.Scan(
			&account.ID, &account.UserID, &account.ExternalID, &account.Name,
			&subtype, &account.Currency, &account.BalanceCents,
			&account.CreatedAt, &account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legacy account: %w", err)
		}

		account.Type = ledger.AccountChecking
		if subtype.Valid && subtype.String == "SAVINGS_ACCOUNT" {
			account.Type = ledger.AccountSavings
		}
		account.LastRefreshedAt = account.UpdatedAt
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy accounts: %w", err)
	}
	return accounts, nil
}

func (r *LegacyReader) ListTransactions(ctx context.Context, userID int64, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	// Legacy rows predate the unified account ids: no legacy transaction
	// belongs to any unified account, so an account filter matches nothing.
	if filter.AccountID != nil {
		return []*ledger.Transaction{}, nil
	}

	query := `
		SELECT id, user_id, pluggy_transaction_id, date, description, category, amount_cents, currency_code, created_at, updated_at
		FROM pluggy_transactions
		WHERE user_id = $1`
	args := []any{userID}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}

	query += ` ORDER BY date DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy transactions: %w", err)
	}
	defer rows.Close()

	return collectLegacyTransactions(rows)
}

func (r *LegacyReader) ListCards(ctx context.Context, userID int64) ([]*ledger.CreditCard, error) {
	query := `
		SELECT id, user_id, pluggy_card_id, name, brand, last_four, currency_code, limit_cents, created_at, updated_at
		FROM pluggy_credit_cards
		WHERE user_id = $1
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy cards: %w", err)
	}
	defer rows.Close()

	var cards []*ledger.CreditCard
	for rows.Next() {
		var card ledger.CreditCard
		var brand, last4 sql.NullString

		err := rows.Scan(
			&card.ID, &card.UserID, &card.ExternalID, &card.Name,
			&brand, &last4, &card.Currency, &card.LimitCents,
			&card.CreatedAt, &card.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legacy card: %w", err)
		}

		if brand.Valid {
			card.Brand = brand.String
		}
		if last4.Valid {
			card.Last4 = last4.String
		}
		cards = append(cards, &card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy cards: %w", err)
	}
	return cards, nil
}

func (r *LegacyReader) ListHoldings(ctx context.Context, userID int64) ([]*ledger.Holding, error) {
	query := `
		SELECT id, user_id, name, code, quantity, unit_price_cents, balance_cents, created_at, updated_at
		FROM pluggy_investments
		WHERE user_id = $1
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy investments: %w", err)
	}
	defer rows.Close()

	var holdings []*ledger.Holding
	for rows.Next() {
		var holding ledger.Holding
		var code sql.NullString
		var quantity sql.NullFloat64
		var priceCents sql.NullInt64

		err := rows.Scan(
			&holding.ID, &holding.UserID, &holding.AssetName, &code,
			&quantity, &priceCents, &holding.MarketValueCents,
			&holding.CreatedAt, &holding.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legacy investment: %w", err)
		}

		if quantity.Valid {
			holding.Quantity = quantity.Float64
		}
		if priceCents.Valid {
			holding.PriceCents = priceCents.Int64
		}
		holding.AssetKey = "name:" + holding.AssetName
		holding.AsOfDate = holding.UpdatedAt
		holdings = append(holdings, &holding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy investments: %w", err)
	}
	return holdings, nil
}

func (r *LegacyReader) TransactionsInWindow(ctx context.Context, userID int64, from, to time.Time) ([]*ledger.Transaction, error) {
	query := `
		SELECT id, user_id, pluggy_transaction_id, date, description, category, amount_cents, currency_code, created_at, updated_at
		FROM pluggy_transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, id`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load legacy transaction window: %w", err)
	}
	defer rows.Close()

	return collectLegacyTransactions(rows)
}

func (r *LegacyReader) TotalCashCents(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(balance_cents), 0) FROM pluggy_accounts WHERE user_id = $1`

	var total int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&total)
	if isUndefinedTable(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to total legacy balances: %w", err)
	}
	return total, nil
}

func (r *LegacyReader) TotalInvestmentCents(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(balance_cents), 0) FROM pluggy_investments WHERE user_id = $1`

	var total int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&total)
	if isUndefinedTable(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to total legacy investments: %w", err)
	}
	return total, nil
}

func collectLegacyTransactions(rows *sql.Rows) ([]*ledger.Transaction, error) {
	var txs []*ledger.Transaction
	for rows.Next() {
		var tx ledger.Transaction
		var category sql.NullString

		err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.ExternalID, &tx.OccurredAt, &tx.Description,
			&category, &tx.AmountCents, &tx.Currency, &tx.CreatedAt, &tx.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legacy transaction: %w", err)
		}

		if category.Valid {
			tx.Category = &category.String
		}
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy transactions: %w", err)
	}
	return txs, nil
}

// isUndefinedTable reports whether err is PostgreSQL's undefined_table,
// which the mid-migration soft probe treats as "no data".
func isUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable
}
