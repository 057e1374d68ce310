package http

import (
	"log"
	"net/http"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/analytics"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/money"
)

// InvestmentHandler serves investment position reads.
type InvestmentHandler struct {
	readers analytics.ReaderSource
}

// NewInvestmentHandler creates a new investment handler.
func NewInvestmentHandler(readers analytics.ReaderSource) *InvestmentHandler {
	return &InvestmentHandler{readers: readers}
}

// HoldingResponse is the wire format for one position (latest snapshot).
type HoldingResponse struct {
	ID          int64   `json:"id"`
	AssetID     *int64  `json:"assetId,omitempty"`
	AssetName   string  `json:"assetName,omitempty"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	MarketValue float64 `json:"marketValue"`
	AsOfDate    string  `json:"asOfDate"`
}

// HandleListHoldings returns the latest snapshot of every position.
func (h *InvestmentHandler) HandleListHoldings(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Failed to list holdings", http.StatusInternalServerError)
		return
	}

	holdings, err := reader.ListHoldings(r.Context(), userID)
	if err != nil {
		log.Printf("User %d: failed to list holdings: %v", userID, err)
		http.Error(w, "Failed to list holdings", http.StatusInternalServerError)
		return
	}

	response := make([]HoldingResponse, 0, len(holdings))
	for _, holding := range holdings {
		response = append(response, HoldingResponse{
			ID:          holding.ID,
			AssetID:     holding.AssetID,
			AssetName:   holding.AssetName,
			Quantity:    holding.Quantity,
			Price:       money.ToMajor(holding.PriceCents),
			MarketValue: money.ToMajor(holding.MarketValueCents),
			AsOfDate:    holding.AsOfDate.Format("2006-01-02"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
