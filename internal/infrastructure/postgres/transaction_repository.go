package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// TransactionRepository implements ledger.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, account_id, external_id, occurred_at, description,
	       merchant, category, category_locked, amount_cents, currency, raw, created_at, updated_at`

// Upsert creates or refreshes a transaction on (user_id, external_id).
// The category column is preserved when the row carries the manual
// override marker; re-syncs never clobber a user's edit.
func (r *TransactionRepository) Upsert(ctx context.Context, params ledger.UpsertTransactionParams) (*ledger.Transaction, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO transactions (
			user_id, account_id, external_id, occurred_at, description, merchant,
			category, amount_cents, currency, raw
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, external_id)
		DO UPDATE SET
			account_id = EXCLUDED.account_id,
			occurred_at = EXCLUDED.occurred_at,
			description = EXCLUDED.description,
			merchant = EXCLUDED.merchant,
			category = CASE WHEN transactions.category_locked THEN transactions.category ELSE EXCLUDED.category END,
			amount_cents = EXCLUDED.amount_cents,
			currency = EXCLUDED.currency,
			raw = EXCLUDED.raw,
			updated_at = CURRENT_TIMESTAMP
		RETURNING ` + transactionColumns

	row := r.db.QueryRowContext(ctx, query,
		params.UserID, params.AccountID, params.ExternalID, params.OccurredAt,
		params.Description, nullString(params.Merchant), nullStringPtr(params.Category),
		params.AmountCents, params.Currency, []byte(params.Raw))

	tx, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return tx, nil
}

// GetByID retrieves a transaction; (nil, nil) when it does not exist.
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// ListByUserID retrieves transactions newest first, honoring the filter.
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}

	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		query += ` AND account_id = $` + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND occurred_at >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND occurred_at <= $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY occurred_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// SetCategory records an explicit user edit and sets the manual-override
// marker so syncs and heuristics leave the row alone from now on.
func (r *TransactionRepository) SetCategory(ctx context.Context, id, userID int64, category string) error {
	query := `
		UPDATE transactions
		SET category = $1, category_locked = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND user_id = $3`

	result, err := r.db.ExecContext(ctx, query, category, id, userID)
	if err != nil {
		return fmt.Errorf("failed to set category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

func scanTransaction(row rowScanner) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	var merchant, category sql.NullString
	var raw []byte

	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.AccountID, &tx.ExternalID, &tx.OccurredAt,
		&tx.Description, &merchant, &category, &tx.CategoryLocked,
		&tx.AmountCents, &tx.Currency, &raw, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if merchant.Valid {
		tx.Merchant = merchant.String
	}
	if category.Valid {
		tx.Category = &category.String
	}
	tx.Raw = raw

	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]*ledger.Transaction, error) {
	var txs []*ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}
