package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// CardRepository implements ledger.CardRepository for PostgreSQL.
type CardRepository struct {
	db *DB
}

// NewCardRepository creates a new PostgreSQL credit card repository.
func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

// UpsertCard creates or refreshes a card on (user_id, external_id).
func (r *CardRepository) UpsertCard(ctx context.Context, params ledger.UpsertCardParams) (*ledger.CreditCard, error) {
	query := `
		INSERT INTO credit_cards (
			user_id, connection_id, external_id, name, brand, last4, currency, limit_cents
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, external_id)
		DO UPDATE SET
			connection_id = EXCLUDED.connection_id,
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			last4 = EXCLUDED.last4,
			currency = EXCLUDED.currency,
			limit_cents = EXCLUDED.limit_cents,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, user_id, connection_id, external_id, name, brand, last4, currency, limit_cents, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		params.UserID, params.ConnectionID, params.ExternalID, params.Name,
		nullString(params.Brand), nullString(params.Last4), params.Currency, params.LimitCents)

	card, err := scanCard(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert credit card: %w", err)
	}
	return card, nil
}

// UpsertInvoice creates or refreshes an invoice on (user_id, external_id)
// and returns the row with its generated id, so item writes reference the
// parent directly instead of re-resolving it by natural key.
func (r *CardRepository) UpsertInvoice(ctx context.Context, params ledger.UpsertInvoiceParams) (*ledger.CardInvoice, error) {
	query := `
		INSERT INTO card_invoices (
			user_id, card_id, external_id, period_start, period_end, due_date,
			total_cents, minimum_cents, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, external_id)
		DO UPDATE SET
			card_id = EXCLUDED.card_id,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			due_date = EXCLUDED.due_date,
			total_cents = EXCLUDED.total_cents,
			minimum_cents = EXCLUDED.minimum_cents,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, user_id, card_id, external_id, period_start, period_end, due_date,
		          total_cents, minimum_cents, status, created_at, updated_at`

	var invoice ledger.CardInvoice
	var periodStart, periodEnd sql.NullTime

	err := r.db.QueryRowContext(ctx, query,
		params.UserID, params.CardID, params.ExternalID,
		nullTime(params.PeriodStart), nullTime(params.PeriodEnd), params.DueDate,
		params.TotalCents, params.MinimumCents, params.Status,
	).Scan(
		&invoice.ID, &invoice.UserID, &invoice.CardID, &invoice.ExternalID,
		&periodStart, &periodEnd, &invoice.DueDate,
		&invoice.TotalCents, &invoice.MinimumCents, &invoice.Status,
		&invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert card invoice: %w", err)
	}

	if periodStart.Valid {
		invoice.PeriodStart = periodStart.Time
	}
	if periodEnd.Valid {
		invoice.PeriodEnd = periodEnd.Time
	}
	return &invoice, nil
}

// UpsertInvoiceItem creates or refreshes an item on (user_id, external_id).
func (r *CardRepository) UpsertInvoiceItem(ctx context.Context, params ledger.UpsertInvoiceItemParams) (*ledger.InvoiceItem, error) {
	query := `
		INSERT INTO invoice_items (
			user_id, invoice_id, external_id, occurred_at, description, merchant, category, amount_cents, raw
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, external_id)
		DO UPDATE SET
			invoice_id = EXCLUDED.invoice_id,
			occurred_at = EXCLUDED.occurred_at,
			description = EXCLUDED.description,
			merchant = EXCLUDED.merchant,
			category = EXCLUDED.category,
			amount_cents = EXCLUDED.amount_cents,
			raw = EXCLUDED.raw,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, user_id, invoice_id, external_id, occurred_at, description, merchant,
		          category, amount_cents, raw, created_at, updated_at`

	var item ledger.InvoiceItem
	var merchant, category sql.NullString
	var raw []byte

	err := r.db.QueryRowContext(ctx, query,
		params.UserID, params.InvoiceID, params.ExternalID, params.OccurredAt,
		params.Description, nullString(params.Merchant), nullStringPtr(params.Category),
		params.AmountCents, []byte(params.Raw),
	).Scan(
		&item.ID, &item.UserID, &item.InvoiceID, &item.ExternalID, &item.OccurredAt,
		&item.Description, &merchant, &category, &item.AmountCents, &raw,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert invoice item: %w", err)
	}

	if merchant.Valid {
		item.Merchant = merchant.String
	}
	if category.Valid {
		item.Category = &category.String
	}
	item.Raw = raw
	return &item, nil
}

// ListCardsByUserID retrieves all credit cards of one user.
func (r *CardRepository) ListCardsByUserID(ctx context.Context, userID int64) ([]*ledger.CreditCard, error) {
	query := `
		SELECT id, user_id, connection_id, external_id, name, brand, last4, currency, limit_cents, created_at, updated_at
		FROM credit_cards
		WHERE user_id = $1
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// ListInvoicesByCardID retrieves a card's invoices newest first.
func (r *CardRepository) ListInvoicesByCardID(ctx context.Context, userID, cardID int64) ([]*ledger.CardInvoice, error) {
	query := `
		SELECT id, user_id, card_id, external_id, period_start, period_end, due_date,
		       total_cents, minimum_cents, status, created_at, updated_at
		FROM card_invoices
		WHERE user_id = $1 AND card_id = $2
		ORDER BY due_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*ledger.CardInvoice
	for rows.Next() {
		var invoice ledger.CardInvoice
		var periodStart, periodEnd sql.NullTime

		err := rows.Scan(
			&invoice.ID, &invoice.UserID, &invoice.CardID, &invoice.ExternalID,
			&periodStart, &periodEnd, &invoice.DueDate,
			&invoice.TotalCents, &invoice.MinimumCents, &invoice.Status,
			&invoice.CreatedAt, &invoice.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}

		if periodStart.Valid {
			invoice.PeriodStart = periodStart.Time
		}
		if periodEnd.Valid {
			invoice.PeriodEnd = periodEnd.Time
		}
		invoices = append(invoices, &invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}
	return invoices, nil
}

func scanCard(row rowScanner) (*ledger.CreditCard, error) {
	var card ledger.CreditCard
	var brand, last4 sql.NullString

	err := row.Scan(
		&card.ID, &card.UserID, &card.ConnectionID, &card.ExternalID,
		&card.Name, &brand, &last4, &card.Currency, &card.LimitCents,
		&card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if brand.Valid {
		card.Brand = brand.String
	}
	if last4.Valid {
		card.Last4 = last4.String
	}
	return &card, nil
}

func collectCards(rows *sql.Rows) ([]*ledger.CreditCard, error) {
	var cards []*ledger.CreditCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit cards: %w", err)
	}
	return cards, nil
}
