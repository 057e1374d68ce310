package sync

import (
	"context"
	"fmt"
	"log"
	stdsync "sync"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/provider"
)

// detachedSyncTimeout bounds a webhook-triggered resync, which runs on a
// background context after the webhook response has been sent.
const detachedSyncTimeout = 5 * time.Minute

// StatusOnLink maps a provider item status to the internal lifecycle
// state on the linking and manual-sync paths. LOGIN_ERROR maps to
// connected here: during linking the provider reports it transiently
// while credentials are still being validated. The webhook path maps it
// to failed instead; see StatusOnWebhook.
func StatusOnLink(itemStatus string) ledger.ConnectionStatus {
	switch itemStatus {
	case provider.ItemUpdated, provider.ItemLoginError:
		return ledger.StatusConnected
	case provider.ItemUpdating, provider.ItemWaitingUserAction:
		return ledger.StatusPending
	case provider.ItemUserInput:
		return ledger.StatusNeedsReauth
	case provider.ItemInvalidCredentials:
		return ledger.StatusFailed
	default:
		return ledger.StatusPending
	}
}

// StatusOnWebhook maps a provider item status to the internal lifecycle
// state when reported asynchronously. Here LOGIN_ERROR is terminal.
func StatusOnWebhook(itemStatus string) ledger.ConnectionStatus {
	switch itemStatus {
	case provider.ItemUpdated:
		return ledger.StatusConnected
	case provider.ItemUpdating, provider.ItemWaitingUserAction:
		return ledger.StatusPending
	case provider.ItemUserInput:
		return ledger.StatusNeedsReauth
	case provider.ItemInvalidCredentials, provider.ItemLoginError:
		return ledger.StatusFailed
	default:
		return ledger.StatusPending
	}
}

// Link registers an item the user finished connecting through the
// provider widget. The item is validated against the provider before
// anything is persisted.
func (s *Service) Link(ctx context.Context, userID int64, externalItemID string, institutionID *int64) (*ledger.Connection, error) {
	if externalItemID == "" {
		return nil, fmt.Errorf("%w: external item id is required", ledger.ErrInvalidInput)
	}

	item, err := s.client.GetItem(ctx, externalItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate item with provider: %w", err)
	}

	existing, err := s.connections.GetByExternalItemID(ctx, externalItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserID != userID {
			return nil, ledger.ErrForbidden
		}
		if err := s.connections.UpdateStatus(ctx, existing.ID, StatusOnLink(item.Status)); err != nil {
			return nil, err
		}
		return s.connections.GetByID(ctx, existing.ID)
	}

	conn, err := s.connections.Create(ctx, ledger.CreateConnectionParams{
		UserID:         userID,
		Provider:       s.cfg.Provider,
		InstitutionID:  institutionID,
		ExternalItemID: externalItemID,
		Status:         StatusOnLink(item.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	log.Printf("User %d: linked connection %d (item %s, status %s)", userID, conn.ID, externalItemID, conn.Status)
	return conn, nil
}

// WebhookEvent is the payload the provider posts on item updates.
type WebhookEvent struct {
	Event  string `json:"event"`
	ItemID string `json:"itemId"`
}

// HandleWebhook re-fetches the item's status, transitions the lifecycle
// state, and — when the item is healthy again — kicks off a detached
// resync so the webhook response is never blocked on reconciliation.
func (s *Service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	if event.ItemID == "" {
		return fmt.Errorf("%w: webhook item id is required", ledger.ErrInvalidInput)
	}

	conn, err := s.connections.GetByExternalItemID(ctx, event.ItemID)
	if err != nil {
		return err
	}
	if conn == nil {
		log.Printf("Webhook for unknown item %s ignored", event.ItemID)
		return nil
	}

	item, err := s.client.GetItem(ctx, event.ItemID)
	if err != nil {
		return fmt.Errorf("failed to fetch item status: %w", err)
	}

	status := StatusOnWebhook(item.Status)
	if err := s.connections.UpdateStatus(ctx, conn.ID, status); err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}
	log.Printf("Connection %d: webhook %s moved status to %s", conn.ID, event.Event, status)

	switch status {
	case ledger.StatusConnected:
		go s.resyncDetached(conn)
	case ledger.StatusNeedsReauth:
		s.notify(conn.UserID, "Reconnection needed",
			"One of your bank connections needs you to sign in again.", conn.ID)
	case ledger.StatusFailed:
		s.notify(conn.UserID, "Connection failed",
			"We could not refresh one of your bank connections.", conn.ID)
	}

	return nil
}

// resyncDetached runs the three entity-type passes concurrently on a
// background context. Each pass gets its own result and failures are
// logged per pass; one pass failing never cancels its siblings.
func (s *Service) resyncDetached(conn *ledger.Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), detachedSyncTimeout)
	defer cancel()

	started := s.now()

	passes := []struct {
		name string
		fn   func(context.Context, *ledger.Connection, *Result) error
	}{
		{"accounts", s.syncAccounts},
		{"cards", s.syncCards},
		{"investments", s.syncInvestments},
	}

	results := make([]*Result, len(passes))
	errs := make([]error, len(passes))

	var wg stdsync.WaitGroup
	for i, pass := range passes {
		wg.Add(1)
		go func(i int, name string, fn func(context.Context, *ledger.Connection, *Result) error) {
			defer wg.Done()
			result := &Result{ConnectionID: conn.ID}
			if err := fn(ctx, conn, result); err != nil {
				errs[i] = fmt.Errorf("%s resync failed: %w", name, err)
				log.Printf("Connection %d: %v", conn.ID, errs[i])
			}
			results[i] = result
		}(i, pass.name, pass.fn)
	}
	wg.Wait()

	merged := &Result{ConnectionID: conn.ID}
	for _, r := range results {
		merged.merge(r)
	}

	var firstErr error
	for _, err := range errs {
		if err != nil {
			firstErr = err
			break
		}
	}

	if firstErr != nil {
		s.recordFailure(ctx, conn, started, firstErr)
		return
	}
	if err := s.connections.RecordSyncResult(ctx, conn.ID, started, ledger.SyncStatusOK, nil); err != nil {
		log.Printf("Connection %d: failed to record sync result: %v", conn.ID, err)
	}
	log.Printf("Connection %d: webhook resync complete - accounts=%d tx=%d cards=%d invoices=%d items=%d holdings=%d errors=%d",
		conn.ID, merged.Accounts, merged.Transactions, merged.Cards,
		merged.Invoices, merged.InvoiceItems, merged.Holdings, len(merged.Errors))
}

// RequestUpdate asks the provider to refresh the item, then applies the
// resulting status. Used by the scheduler for connected items.
func (s *Service) RequestUpdate(ctx context.Context, conn *ledger.Connection) error {
	item, err := s.client.UpdateItem(ctx, conn.ExternalItemID)
	if err != nil {
		return fmt.Errorf("failed to request item update: %w", err)
	}
	if err := s.connections.UpdateStatus(ctx, conn.ID, StatusOnWebhook(item.Status)); err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}
	return nil
}

// SyncScheduled runs a full pass for a connection without the manual
// cooldown check.
func (s *Service) SyncScheduled(ctx context.Context, conn *ledger.Connection) (*Result, error) {
	return s.syncConnection(ctx, conn)
}

// DeleteConnection removes the item on the provider side (best effort)
// and always removes the local connection and its data.
func (s *Service) DeleteConnection(ctx context.Context, userID, connectionID int64) error {
	conn, err := s.ownedConnection(ctx, userID, connectionID)
	if err != nil {
		return err
	}

	if err := s.client.DeleteItem(ctx, conn.ExternalItemID); err != nil {
		log.Printf("Connection %d: provider-side delete failed, removing locally anyway: %v", conn.ID, err)
	}

	if err := s.connections.Delete(ctx, conn.ID); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	log.Printf("User %d: deleted connection %d", userID, conn.ID)
	return nil
}

// Connections lists the user's connections.
func (s *Service) Connections(ctx context.Context, userID int64) ([]*ledger.Connection, error) {
	return s.connections.ListByUserID(ctx, userID)
}

// Connection fetches a single connection after an ownership check.
func (s *Service) Connection(ctx context.Context, userID, connectionID int64) (*ledger.Connection, error) {
	return s.ownedConnection(ctx, userID, connectionID)
}

func (s *Service) notify(userID int64, title, body string, connectionID int64) {
	if s.messenger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	data := map[string]string{"connectionId": fmt.Sprintf("%d", connectionID)}
	if err := s.messenger.Send(ctx, userID, title, body, data); err != nil {
		log.Printf("User %d: failed to send notification: %v", userID, err)
	}
}
