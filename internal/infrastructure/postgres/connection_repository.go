package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
)

// ConnectionRepository implements ledger.ConnectionRepository for PostgreSQL.
type ConnectionRepository struct {
	db *DB
}

// NewConnectionRepository creates a new PostgreSQL connection repository.
func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

const connectionColumns = `id, user_id, provider, institution_id, external_item_id, status,
	       last_sync_at, last_sync_status, last_sync_error, created_at, updated_at`

// Create registers a new connection. (user_id, external_item_id) is
// unique, so relinking the same item conflicts instead of duplicating.
func (r *ConnectionRepository) Create(ctx context.Context, params ledger.CreateConnectionParams) (*ledger.Connection, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO connections (user_id, provider, institution_id, external_item_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + connectionColumns

	row := r.db.QueryRowContext(ctx, query,
		params.UserID, params.Provider, nullInt64Ptr(params.InstitutionID), params.ExternalItemID, params.Status)

	conn, err := scanConnection(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	return conn, nil
}

// GetByID retrieves a connection; (nil, nil) when it does not exist.
func (r *ConnectionRepository) GetByID(ctx context.Context, id int64) (*ledger.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// GetByExternalItemID retrieves a connection by its provider item id;
// (nil, nil) when no connection matches, since webhooks for unknown
// items are expected.
func (r *ConnectionRepository) GetByExternalItemID(ctx context.Context, externalItemID string) (*ledger.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE external_item_id = $1`

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, externalItemID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection by item id: %w", err)
	}
	return conn, nil
}

// ListByUserID retrieves all connections of one user.
func (r *ConnectionRepository) ListByUserID(ctx context.Context, userID int64) ([]*ledger.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	return collectConnections(rows)
}

// ListConnected retrieves every connection eligible for scheduled resync.
func (r *ConnectionRepository) ListConnected(ctx context.Context) ([]*ledger.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE status = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, ledger.StatusConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to list connected connections: %w", err)
	}
	defer rows.Close()

	return collectConnections(rows)
}

// UpdateStatus transitions the lifecycle state.
func (r *ConnectionRepository) UpdateStatus(ctx context.Context, id int64, status ledger.ConnectionStatus) error {
	query := `UPDATE connections SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ledger.ErrConnectionNotFound
	}
	return nil
}

// RecordSyncResult stamps the outcome of a sync attempt.
func (r *ConnectionRepository) RecordSyncResult(ctx context.Context, id int64, at time.Time, status string, syncErr *string) error {
	query := `
		UPDATE connections
		SET last_sync_at = $1, last_sync_status = $2, last_sync_error = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, at, status, nullStringPtr(syncErr), id)
	if err != nil {
		return fmt.Errorf("failed to record sync result: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ledger.ErrConnectionNotFound
	}
	return nil
}

// Delete removes a connection; dependent rows cascade in the schema.
func (r *ConnectionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ledger.ErrConnectionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*ledger.Connection, error) {
	var conn ledger.Connection
	var institutionID sql.NullInt64
	var lastSyncAt sql.NullTime
	var lastSyncStatus, lastSyncError sql.NullString

	err := row.Scan(
		&conn.ID, &conn.UserID, &conn.Provider, &institutionID, &conn.ExternalItemID, &conn.Status,
		&lastSyncAt, &lastSyncStatus, &lastSyncError, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if institutionID.Valid {
		conn.InstitutionID = &institutionID.Int64
	}
	if lastSyncAt.Valid {
		conn.LastSyncAt = &lastSyncAt.Time
	}
	if lastSyncStatus.Valid {
		conn.LastSyncStatus = lastSyncStatus.String
	}
	if lastSyncError.Valid {
		conn.LastSyncError = &lastSyncError.String
	}

	return &conn, nil
}

func collectConnections(rows *sql.Rows) ([]*ledger.Connection, error) {
	var connections []*ledger.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return connections, nil
}

// Shared nullable-conversion helpers.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64Ptr(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
