// Package http exposes the REST surface. Handlers convert cents to
// major currency units at this boundary and nowhere else.
package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/analytics"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/money"
)

// AccountHandler serves bank account reads.
type AccountHandler struct {
	readers analytics.ReaderSource
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(readers analytics.ReaderSource) *AccountHandler {
	return &AccountHandler{readers: readers}
}

// AccountResponse is the wire format for one bank account.
type AccountResponse struct {
	ID              int64   `json:"id"`
	ExternalID      string  `json:"externalId"`
	Type            string  `json:"type"`
	Name            string  `json:"name"`
	Currency        string  `json:"currency"`
	Balance         float64 `json:"balance"`
	LastRefreshedAt string  `json:"lastRefreshedAt,omitempty"`
}

// HandleListAccounts returns all bank accounts of the authenticated user.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reader, err := h.readers.ReaderFor(r.Context(), userID)
	if err != nil {
		log.Printf("User %d: failed to resolve read source: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	accounts, err := reader.ListAccounts(r.Context(), userID)
	if err != nil {
		log.Printf("User %d: failed to list accounts: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, toAccountResponse(account))
	}

	writeJSON(w, http.StatusOK, response)
}

func toAccountResponse(account *ledger.BankAccount) AccountResponse {
	resp := AccountResponse{
		ID:         account.ID,
		ExternalID: account.ExternalID,
		Type:       string(account.Type),
		Name:       account.Name,
		Currency:   account.Currency,
		Balance:    money.ToMajor(account.BalanceCents),
	}
	if !account.LastRefreshedAt.IsZero() {
		resp.LastRefreshedAt = account.LastRefreshedAt.Format(time.RFC3339)
	}
	return resp
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
