package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/provider"
)

func TestStatusMappings(t *testing.T) {
	tests := []struct {
		itemStatus  string
		wantLink    ledger.ConnectionStatus
		wantWebhook ledger.ConnectionStatus
	}{
		{provider.ItemUpdated, ledger.StatusConnected, ledger.StatusConnected},
		{provider.ItemUpdating, ledger.StatusPending, ledger.StatusPending},
		{provider.ItemWaitingUserAction, ledger.StatusPending, ledger.StatusPending},
		{provider.ItemUserInput, ledger.StatusNeedsReauth, ledger.StatusNeedsReauth},
		{provider.ItemInvalidCredentials, ledger.StatusFailed, ledger.StatusFailed},
		// LOGIN_ERROR is the one status the two paths disagree on.
		{provider.ItemLoginError, ledger.StatusConnected, ledger.StatusFailed},
		{"SOMETHING_NEW", ledger.StatusPending, ledger.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.itemStatus, func(t *testing.T) {
			if got := StatusOnLink(tt.itemStatus); got != tt.wantLink {
				t.Errorf("StatusOnLink(%s) = %s, want %s", tt.itemStatus, got, tt.wantLink)
			}
			if got := StatusOnWebhook(tt.itemStatus); got != tt.wantWebhook {
				t.Errorf("StatusOnWebhook(%s) = %s, want %s", tt.itemStatus, got, tt.wantWebhook)
			}
		})
	}
}

func TestLink(t *testing.T) {
	env := newTestEnv()
	env.api.GetItemFunc = func(ctx context.Context, itemID string) (*provider.Item, error) {
		return &provider.Item{ID: itemID, Status: provider.ItemLoginError}, nil
	}

	conn, err := env.svc.Link(context.Background(), 10, "item-9", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.Status != ledger.StatusConnected {
		t.Errorf("status = %s, want connected (LOGIN_ERROR on the linking path)", conn.Status)
	}
	if conn.Provider != "pluggy" {
		t.Errorf("provider = %q, want pluggy", conn.Provider)
	}
}

func TestLinkValidation(t *testing.T) {
	env := newTestEnv()
	if _, err := env.svc.Link(context.Background(), 10, "", nil); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty item id, got %v", err)
	}
	if env.api.Calls != 0 {
		t.Error("expected no provider call on invalid input")
	}
}

func TestLinkExistingItem(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))

	conn, err := env.svc.Link(context.Background(), 10, "item-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.ID != 1 {
		t.Errorf("expected the existing connection, got id %d", conn.ID)
	}

	if _, err := env.svc.Link(context.Background(), 99, "item-1", nil); !errors.Is(err, ledger.ErrForbidden) {
		t.Errorf("relinking another user's item must fail, got %v", err)
	}
}

func TestHandleWebhookUnknownItem(t *testing.T) {
	env := newTestEnv()

	err := env.svc.HandleWebhook(context.Background(), WebhookEvent{Event: "item/updated", ItemID: "ghost"})
	if err != nil {
		t.Fatalf("webhooks for unknown items must be ignored, got %v", err)
	}
	if env.api.Calls != 0 {
		t.Error("expected no provider call for an unknown item")
	}
}

func TestHandleWebhookStatusTransitions(t *testing.T) {
	tests := []struct {
		name       string
		itemStatus string
		wantStatus ledger.ConnectionStatus
		wantNotify bool
	}{
		{name: "Needs Reauth Notifies", itemStatus: provider.ItemUserInput, wantStatus: ledger.StatusNeedsReauth, wantNotify: true},
		{name: "Login Error Fails And Notifies", itemStatus: provider.ItemLoginError, wantStatus: ledger.StatusFailed, wantNotify: true},
		{name: "Updating Stays Pending", itemStatus: provider.ItemUpdating, wantStatus: ledger.StatusPending, wantNotify: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.addConnection(connected(1, 10, "item-1"))
			env.api.GetItemFunc = func(ctx context.Context, itemID string) (*provider.Item, error) {
				return &provider.Item{ID: itemID, Status: tt.itemStatus}, nil
			}

			if err := env.svc.HandleWebhook(context.Background(), WebhookEvent{Event: "item/updated", ItemID: "item-1"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := env.connections.Connections[1].Status; got != tt.wantStatus {
				t.Errorf("status = %s, want %s", got, tt.wantStatus)
			}
			if notified := len(env.messenger.Sent) > 0; notified != tt.wantNotify {
				t.Errorf("notified = %v, want %v", notified, tt.wantNotify)
			}
		})
	}
}

func TestHandleWebhookTriggersDetachedResync(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))

	synced := make(chan string, 3)
	env.api.GetAccountsFunc = func(ctx context.Context, itemID string) (*provider.AccountResponse, error) {
		synced <- "accounts"
		return &provider.AccountResponse{Success: true}, nil
	}
	env.api.GetCreditCardsFunc = func(ctx context.Context, itemID string) (*provider.CreditCardResponse, error) {
		synced <- "cards"
		return &provider.CreditCardResponse{Success: true}, nil
	}
	env.api.GetInvestmentsFunc = func(ctx context.Context, itemID string) (*provider.InvestmentResponse, error) {
		synced <- "investments"
		return &provider.InvestmentResponse{Success: true}, nil
	}

	if err := env.svc.HandleWebhook(context.Background(), WebhookEvent{Event: "item/updated", ItemID: "item-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for len(seen) < 3 {
		select {
		case name := <-synced:
			seen[name] = true
		case <-timeout:
			t.Fatalf("resync passes did not all run, saw %v", seen)
		}
	}
}

func TestDeleteConnection(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))
	env.api.DeleteItemFunc = func(ctx context.Context, itemID string) error {
		return errors.New("provider unavailable")
	}

	// A provider-side failure must not keep the local row around.
	if err := env.svc.DeleteConnection(context.Background(), 10, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.connections.Deleted) != 1 {
		t.Error("expected the local connection to be deleted")
	}
}

func TestDeleteConnectionOwnership(t *testing.T) {
	env := newTestEnv()
	env.addConnection(connected(1, 10, "item-1"))

	if err := env.svc.DeleteConnection(context.Background(), 99, 1); !errors.Is(err, ledger.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(env.connections.Deleted) != 0 {
		t.Error("nothing should be deleted for a foreign user")
	}
}
