package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// InvestmentRepository implements ledger.InvestmentRepository for PostgreSQL.
type InvestmentRepository struct {
	db *DB
}

// NewInvestmentRepository creates a new PostgreSQL investment repository.
func NewInvestmentRepository(db *DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

// FindAsset looks up an asset by (symbol, currency); (nil, nil) when it
// does not exist, since assets are created lazily on first reference.
func (r *InvestmentRepository) FindAsset(ctx context.Context, symbol, currency string) (*ledger.Asset, error) {
	query := `
		SELECT id, symbol, name, asset_class, currency, created_at
		FROM assets
		WHERE symbol = $1 AND currency = $2`

	var asset ledger.Asset
	err := r.db.QueryRowContext(ctx, query, symbol, currency).Scan(
		&asset.ID, &asset.Symbol, &asset.Name, &asset.Class, &asset.Currency, &asset.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	return &asset, nil
}

// CreateAsset registers an asset. Concurrent first references race on
// the (symbol, currency) unique index; the conflict clause makes the
// loser adopt the winner's row.
func (r *InvestmentRepository) CreateAsset(ctx context.Context, params ledger.CreateAssetParams) (*ledger.Asset, error) {
	query := `
		INSERT INTO assets (symbol, name, asset_class, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, currency)
		DO UPDATE SET name = EXCLUDED.name
		RETURNING id, symbol, name, asset_class, currency, created_at`

	var asset ledger.Asset
	err := r.db.QueryRowContext(ctx, query,
		params.Symbol, params.Name, params.Class, params.Currency,
	).Scan(
		&asset.ID, &asset.Symbol, &asset.Name, &asset.Class, &asset.Currency, &asset.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}
	return &asset, nil
}

// UpsertHolding writes the daily snapshot in place on
// (user_id, connection_id, asset_key, as_of_date).
func (r *InvestmentRepository) UpsertHolding(ctx context.Context, params ledger.UpsertHoldingParams) (*ledger.Holding, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO holdings (
			user_id, connection_id, asset_id, asset_name, asset_key,
			quantity, price_cents, market_value_cents, as_of_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, connection_id, asset_key, as_of_date)
		DO UPDATE SET
			asset_id = EXCLUDED.asset_id,
			asset_name = EXCLUDED.asset_name,
			quantity = EXCLUDED.quantity,
			price_cents = EXCLUDED.price_cents,
			market_value_cents = EXCLUDED.market_value_cents,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, user_id, connection_id, asset_id, asset_name, asset_key,
		          quantity, price_cents, market_value_cents, as_of_date, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		params.UserID, params.ConnectionID, nullInt64Ptr(params.AssetID),
		nullString(params.AssetName), params.AssetKey,
		params.Quantity, params.PriceCents, params.MarketValueCents, params.AsOfDate)

	holding, err := scanHolding(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert holding: %w", err)
	}
	return holding, nil
}

func scanHolding(row rowScanner) (*ledger.Holding, error) {
	var holding ledger.Holding
	var assetID sql.NullInt64
	var assetName sql.NullString

	err := row.Scan(
		&holding.ID, &holding.UserID, &holding.ConnectionID, &assetID, &assetName,
		&holding.AssetKey, &holding.Quantity, &holding.PriceCents, &holding.MarketValueCents,
		&holding.AsOfDate, &holding.CreatedAt, &holding.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assetID.Valid {
		holding.AssetID = &assetID.Int64
	}
	if assetName.Valid {
		holding.AssetName = assetName.String
	}
	return &holding, nil
}
