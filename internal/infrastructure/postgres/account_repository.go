package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// AccountRepository implements ledger.AccountRepository for PostgreSQL.
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL bank account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const bankAccountColumns = `id, user_id, connection_id, external_id, account_type, name,
	       currency, balance_cents, last_refreshed_at, created_at, updated_at`

// Upsert creates or refreshes an account on (user_id, external_id).
func (r *AccountRepository) Upsert(ctx context.Context, params ledger.UpsertAccountParams) (*ledger.BankAccount, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO bank_accounts (
			user_id, connection_id, external_id, account_type, name, currency, balance_cents, last_refreshed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, external_id)
		DO UPDATE SET
			connection_id = EXCLUDED.connection_id,
			account_type = EXCLUDED.account_type,
			name = EXCLUDED.name,
			currency = EXCLUDED.currency,
			balance_cents = EXCLUDED.balance_cents,
			last_refreshed_at = EXCLUDED.last_refreshed_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING ` + bankAccountColumns

	row := r.db.QueryRowContext(ctx, query,
		params.UserID, params.ConnectionID, params.ExternalID, params.Type,
		params.Name, params.Currency, params.BalanceCents, params.LastRefreshedAt)

	account, err := scanBankAccount(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert bank account: %w", err)
	}
	return account, nil
}

// ListByUserID retrieves all bank accounts of one user.
func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*ledger.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE user_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	return collectBankAccounts(rows)
}

func scanBankAccount(row rowScanner) (*ledger.BankAccount, error) {
	var account ledger.BankAccount
	err := row.Scan(
		&account.ID, &account.UserID, &account.ConnectionID, &account.ExternalID,
		&account.Type, &account.Name, &account.Currency, &account.BalanceCents,
		&account.LastRefreshedAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func collectBankAccounts(rows *sql.Rows) ([]*ledger.BankAccount, error) {
	var accounts []*ledger.BankAccount
	for rows.Next() {
		account, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}
	return accounts, nil
}
