package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/sync"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
)

// ConnectionHandler serves the connection lifecycle: linking, listing,
// manual sync, deletion and the provider webhook.
type ConnectionHandler struct {
	syncService *sync.Service
}

// NewConnectionHandler creates a new connection handler.
func NewConnectionHandler(syncService *sync.Service) *ConnectionHandler {
	return &ConnectionHandler{syncService: syncService}
}

// LinkConnectionRequest is the body posted after the provider widget
// finishes.
type LinkConnectionRequest struct {
	ItemID        string `json:"itemId"`
	InstitutionID *int64 `json:"institutionId,omitempty"`
}

// ConnectionResponse is the wire format for one connection.
type ConnectionResponse struct {
	ID             int64   `json:"id"`
	Provider       string  `json:"provider"`
	InstitutionID  *int64  `json:"institutionId,omitempty"`
	ExternalItemID string  `json:"externalItemId"`
	Status         string  `json:"status"`
	LastSyncAt     *string `json:"lastSyncAt,omitempty"`
	LastSyncStatus string  `json:"lastSyncStatus,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

// SyncResultResponse reports the counters of a manual sync.
type SyncResultResponse struct {
	ConnectionID int64    `json:"connectionId"`
	Accounts     int      `json:"accounts"`
	Transactions int      `json:"transactions"`
	Cards        int      `json:"cards"`
	Invoices     int      `json:"invoices"`
	InvoiceItems int      `json:"invoiceItems"`
	Holdings     int      `json:"holdings"`
	Errors       []string `json:"errors,omitempty"`
}

// HandleConnections lists the user's connections (GET) or links a new
// one (POST).
func (h *ConnectionHandler) HandleConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, userID)
	case http.MethodPost:
		h.handleLink(w, r, userID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ConnectionHandler) handleList(w http.ResponseWriter, r *http.Request, userID int64) {
	connections, err := h.syncService.Connections(r.Context(), userID)
	if err != nil {
		log.Printf("User %d: failed to list connections: %v", userID, err)
		http.Error(w, "Failed to list connections", http.StatusInternalServerError)
		return
	}

	response := make([]ConnectionResponse, 0, len(connections))
	for _, conn := range connections {
		response = append(response, toConnectionResponse(conn))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *ConnectionHandler) handleLink(w http.ResponseWriter, r *http.Request, userID int64) {
	var req LinkConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	conn, err := h.syncService.Link(r.Context(), userID, req.ItemID, req.InstitutionID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidInput):
			http.Error(w, "Item ID is required", http.StatusBadRequest)
		case errors.Is(err, ledger.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			log.Printf("User %d: failed to link item: %v", userID, err)
			http.Error(w, "Failed to link connection", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toConnectionResponse(conn))
}

// HandleConnectionByID serves GET and DELETE for one connection.
func (h *ConnectionHandler) HandleConnectionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		conn, err := h.syncService.Connection(r.Context(), userID, id)
		if err != nil {
			writeConnectionError(w, userID, id, err)
			return
		}
		writeJSON(w, http.StatusOK, toConnectionResponse(conn))
	case http.MethodDelete:
		if err := h.syncService.DeleteConnection(r.Context(), userID, id); err != nil {
			writeConnectionError(w, userID, id, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSyncConnection runs a manual sync. A request inside the cooldown
// window is rejected with 429 and never reaches the provider.
func (h *ConnectionHandler) HandleSyncConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	result, err := h.syncService.Sync(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, sync.ErrRateLimited) {
			http.Error(w, "Sync was run recently, try again in a few minutes", http.StatusTooManyRequests)
			return
		}
		writeConnectionError(w, userID, id, err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResultResponse{
		ConnectionID: result.ConnectionID,
		Accounts:     result.Accounts,
		Transactions: result.Transactions,
		Cards:        result.Cards,
		Invoices:     result.Invoices,
		InvoiceItems: result.InvoiceItems,
		Holdings:     result.Holdings,
		Errors:       result.Errors,
	})
}

// HandleWebhook receives provider item notifications. It is mounted
// outside the auth middleware; the provider does not carry user tokens.
func (h *ConnectionHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event sync.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.syncService.HandleWebhook(r.Context(), event); err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) {
			http.Error(w, "Item ID is required", http.StatusBadRequest)
			return
		}
		log.Printf("Webhook for item %s failed: %v", event.ItemID, err)
		http.Error(w, "Failed to process webhook", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func writeConnectionError(w http.ResponseWriter, userID, connectionID int64, err error) {
	switch {
	case errors.Is(err, ledger.ErrConnectionNotFound):
		http.Error(w, "Connection not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		log.Printf("User %d: connection %d request failed: %v", userID, connectionID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func toConnectionResponse(conn *ledger.Connection) ConnectionResponse {
	resp := ConnectionResponse{
		ID:             conn.ID,
		Provider:       conn.Provider,
		InstitutionID:  conn.InstitutionID,
		ExternalItemID: conn.ExternalItemID,
		Status:         string(conn.Status),
		LastSyncStatus: conn.LastSyncStatus,
		CreatedAt:      conn.CreatedAt.Format(time.RFC3339),
	}
	if conn.LastSyncAt != nil {
		formatted := conn.LastSyncAt.Format(time.RFC3339)
		resp.LastSyncAt = &formatted
	}
	return resp
}
