package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/analytics"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/money"
)

// CardHandler serves credit card and invoice reads. Invoice listings
// always come from the unified ledger; the legacy table set never stored
// invoices.
type CardHandler struct {
	readers analytics.ReaderSource
	cards   ledger.CardRepository
}

// NewCardHandler creates a new credit card handler.
func NewCardHandler(readers analytics.ReaderSource, cards ledger.CardRepository) *CardHandler {
	return &CardHandler{readers: readers, cards: cards}
}

// CardResponse is the wire format for one credit card.
type CardResponse struct {
	ID         int64   `json:"id"`
	ExternalID string  `json:"externalId"`
	Name       string  `json:"name"`
	Brand      string  `json:"brand,omitempty"`
	Last4      string  `json:"last4,omitempty"`
	Currency   string  `json:"currency"`
	Limit      float64 `json:"limit"`
}

// InvoiceResponse is the wire format for one card invoice.
type InvoiceResponse struct {
	ID             int64   `json:"id"`
	ExternalID     string  `json:"externalId"`
	PeriodStart    string  `json:"periodStart,omitempty"`
	PeriodEnd      string  `json:"periodEnd,omitempty"`
	DueDate        string  `json:"dueDate"`
	Total          float64 `json:"total"`
	MinimumPayment float64 `json:"minimumPayment"`
	Status         string  `json:"status"`
}

// HandleListCards returns all credit cards of the authenticated user.
func (h *CardHandler) HandleListCards(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Failed to list cards", http.StatusInternalServerError)
		return
	}

	cards, err := reader.ListCards(r.Context(), userID)
	if err != nil {
		log.Printf("User %d: failed to list cards: %v", userID, err)
		http.Error(w, "Failed to list cards", http.StatusInternalServerError)
		return
	}

	response := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		response = append(response, CardResponse{
			ID:         card.ID,
			ExternalID: card.ExternalID,
			Name:       card.Name,
			Brand:      card.Brand,
			Last4:      card.Last4,
			Currency:   card.Currency,
			Limit:      money.ToMajor(card.LimitCents),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleListInvoices returns the invoices of one card, newest first.
func (h *CardHandler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cardID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid card ID", http.StatusBadRequest)
		return
	}

	invoices, err := h.cards.ListInvoicesByCardID(r.Context(), userID, cardID)
	if err != nil {
		log.Printf("User %d: failed to list invoices for card %d: %v", userID, cardID, err)
		http.Error(w, "Failed to list invoices", http.StatusInternalServerError)
		return
	}

	response := make([]InvoiceResponse, 0, len(invoices))
	for _, invoice := range invoices {
		resp := InvoiceResponse{
			ID:             invoice.ID,
			ExternalID:     invoice.ExternalID,
			DueDate:        invoice.DueDate.Format("2006-01-02"),
			Total:          money.ToMajor(invoice.TotalCents),
			MinimumPayment: money.ToMajor(invoice.MinimumCents),
			Status:         invoice.Status,
		}
		if !invoice.PeriodStart.IsZero() {
			resp.PeriodStart = invoice.PeriodStart.Format("2006-01-02")
		}
		if !invoice.PeriodEnd.IsZero() {
			resp.PeriodEnd = invoice.PeriodEnd.Format("2006-01-02")
		}
		response = append(response, resp)
	}

	writeJSON(w, http.StatusOK, response)
}
