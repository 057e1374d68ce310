package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// InstitutionRepository implements ledger.InstitutionRepository for PostgreSQL.
type InstitutionRepository struct {
	db *DB
}

// NewInstitutionRepository creates a new PostgreSQL institution repository.
func NewInstitutionRepository(db *DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// Upsert creates or refreshes a catalog entry on (provider, external_id).
func (r *InstitutionRepository) Upsert(ctx context.Context, params ledger.UpsertInstitutionParams) (*ledger.Institution, error) {
	query := `
		INSERT INTO institutions (provider, external_id, name, logo_url, enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, external_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			logo_url = EXCLUDED.logo_url,
			enabled = EXCLUDED.enabled,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, provider, external_id, name, logo_url, enabled, created_at, updated_at`

	var inst ledger.Institution
	var logoURL sql.NullString

	err := r.db.QueryRowContext(ctx, query,
		params.Provider, params.ExternalID, params.Name, nullString(params.LogoURL), params.Enabled,
	).Scan(
		&inst.ID, &inst.Provider, &inst.ExternalID, &inst.Name, &logoURL,
		&inst.Enabled, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert institution: %w", err)
	}

	if logoURL.Valid {
		inst.LogoURL = logoURL.String
	}
	return &inst, nil
}

// List retrieves the enabled institution catalog.
func (r *InstitutionRepository) List(ctx context.Context) ([]*ledger.Institution, error) {
	query := `
		SELECT id, provider, external_id, name, logo_url, enabled, created_at, updated_at
		FROM institutions
		WHERE enabled = TRUE
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	var institutions []*ledger.Institution
	for rows.Next() {
		var inst ledger.Institution
		var logoURL sql.NullString

		err := rows.Scan(
			&inst.ID, &inst.Provider, &inst.ExternalID, &inst.Name, &logoURL,
			&inst.Enabled, &inst.CreatedAt, &inst.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan institution: %w", err)
		}
		if logoURL.Valid {
			inst.LogoURL = logoURL.String
		}
		institutions = append(institutions, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating institutions: %w", err)
	}
	return institutions, nil
}
