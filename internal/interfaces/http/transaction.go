package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/analytics"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/category"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/money"
)

const defaultTransactionLimit = 100

// TransactionHandler serves transaction reads and category edits.
// Category edits always go to the unified ledger; reads follow the
// resolved source.
type TransactionHandler struct {
	readers      analytics.ReaderSource
	transactions ledger.TransactionRepository
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(readers analytics.ReaderSource, transactions ledger.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{readers: readers, transactions: transactions}
}

// TransactionResponse is the wire format for one transaction. Category
// is always present: the provider's, the heuristic's, or the fallback.
type TransactionResponse struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"accountId,omitempty"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Merchant    string  `json:"merchant,omitempty"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

// HandleListTransactions returns the user's transactions, newest first.
// Supported query params: accountId, from, to (RFC 3339 dates), limit, offset.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reader, err := h.readers.ReaderFor(r.Context(), userID)
	if err != nil {
		log.Printf("User %d: failed to resolve read source: %v", userID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	txs, err := reader.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		log.Printf("User %d: failed to list transactions: %v", userID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	response := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		response = append(response, toTransactionResponse(tx))
	}

	writeJSON(w, http.StatusOK, response)
}

// UpdateCategoryRequest is the body of a category edit.
type UpdateCategoryRequest struct {
	Category string `json:"category"`
}

// HandleTransactionByID routes PATCH category edits for one transaction.
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Category == "" {
		http.Error(w, "Category is required", http.StatusBadRequest)
		return
	}

	if err := h.transactions.SetCategory(r.Context(), id, userID, req.Category); err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		log.Printf("User %d: failed to set category on transaction %d: %v", userID, id, err)
		http.Error(w, "Failed to update category", http.StatusInternalServerError)
		return
	}

	tx, err := h.transactions.GetByID(r.Context(), id)
	if err != nil || tx == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func parseTransactionFilter(r *http.Request) (ledger.TransactionFilter, error) {
	filter := ledger.TransactionFilter{Limit: defaultTransactionLimit}
	q := r.URL.Query()

	if v := q.Get("accountId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errors.New("invalid accountId")
		}
		filter.AccountID = &id
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		// inclusive through the end of the day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errors.New("invalid offset")
		}
		filter.Offset = offset
	}

	return filter, nil
}

func toTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Date:        tx.OccurredAt.Format("2006-01-02"),
		Description: tx.Description,
		Merchant:    tx.Merchant,
		Category:    category.ForTransaction(tx),
		Amount:      money.ToMajor(tx.AmountCents),
		Currency:    tx.Currency,
	}
}
