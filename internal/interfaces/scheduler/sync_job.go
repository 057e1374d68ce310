package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/sync"
)

// ConnectionSyncer is the slice of the sync service the scheduler needs.
type ConnectionSyncer interface {
	RequestUpdate(ctx context.Context, conn *ledger.Connection) error
	SyncScheduled(ctx context.Context, conn *ledger.Connection) (*sync.Result, error)
}

// ConnectionSyncJob implements the Job interface for resyncing one connection.
type ConnectionSyncJob struct {
	conn        *ledger.Connection
	syncService ConnectionSyncer
}

// NewConnectionSyncJob creates a new sync job for a connection.
func NewConnectionSyncJob(conn *ledger.Connection, syncService ConnectionSyncer) *ConnectionSyncJob {
	return &ConnectionSyncJob{
		conn:        conn,
		syncService: syncService,
	}
}

// Execute asks the provider to refresh the item, then reconciles all
// entity sets for the connection. A failed refresh request is not fatal:
// the reconcile still pulls whatever data the provider last collected.
func (j *ConnectionSyncJob) Execute(ctx context.Context) error {
	log.Printf("Connection %d: starting scheduled sync", j.conn.ID)

	if err := j.syncService.RequestUpdate(ctx, j.conn); err != nil {
		log.Printf("Connection %d: provider refresh request failed: %v", j.conn.ID, err)
	}

	result, err := j.syncService.SyncScheduled(ctx, j.conn)
	if err != nil {
		log.Printf("Connection %d: scheduled sync failed: %v", j.conn.ID, err)
		return fmt.Errorf("sync failed: %w", err)
	}

	// Swallowed leaf errors are a partial success, same as the manual
	// path recording ok: the job only fails when the whole sync does.
	if len(result.Errors) > 0 {
		log.Printf("Connection %d: scheduled sync completed with errors: Accounts=%d, Transactions=%d, Cards=%d, Holdings=%d, Errors=%d",
			j.conn.ID, result.Accounts, result.Transactions, result.Cards, result.Holdings, len(result.Errors))
		return nil
	}

	log.Printf("Connection %d: scheduled sync completed successfully: Accounts=%d, Transactions=%d, Cards=%d, Holdings=%d",
		j.conn.ID, result.Accounts, result.Transactions, result.Cards, result.Holdings)

	return nil
}

// UserID returns the owning user's ID.
func (j *ConnectionSyncJob) UserID() string {
	return strconv.FormatInt(j.conn.UserID, 10)
}

// Description returns a human-readable description of the job.
func (j *ConnectionSyncJob) Description() string {
	return fmt.Sprintf("Scheduled sync for connection %d", j.conn.ID)
}

// ConnectedJobProvider builds the scheduler's job batch: one sync job per
// connection currently in the connected state.
func ConnectedJobProvider(connections ledger.ConnectionRepository, syncService ConnectionSyncer) func(ctx context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		conns, err := connections.ListConnected(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list connected connections: %w", err)
		}

		jobs := make([]Job, 0, len(conns))
		for _, conn := range conns {
			jobs = append(jobs, NewConnectionSyncJob(conn, syncService))
		}
		return jobs, nil
	}
}
