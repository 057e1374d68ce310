package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/analytics"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/ledger"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/money"
)

// AnalyticsHandler serves the aggregate endpoints.
type AnalyticsHandler struct {
	analytics *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: service}
}

// NetWorthPointResponse is one month of the evolution series.
type NetWorthPointResponse struct {
	Period   string  `json:"period"`
	NetWorth float64 `json:"netWorth"`
}

// CategorySpendResponse is one bucket of a spending report.
type CategorySpendResponse struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Percent  float64 `json:"percent"`
}

// CashFlowBucketResponse is one period of a cash-flow report.
type CashFlowBucketResponse struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// HandleNetWorthEvolution returns the monthly net worth series.
// Query param: months (default 12).
func (h *AnalyticsHandler) HandleNetWorthEvolution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	months := analytics.DefaultNetWorthMonths
	if v := r.URL.Query().Get("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 120 {
			http.Error(w, "Invalid months", http.StatusBadRequest)
			return
		}
		months = parsed
	}

	points, err := h.analytics.NetWorthEvolution(r.Context(), userID, months)
	if err != nil {
		log.Printf("User %d: failed to compute net worth evolution: %v", userID, err)
		http.Error(w, "Failed to compute net worth", http.StatusInternalServerError)
		return
	}

	response := make([]NetWorthPointResponse, 0, len(points))
	for _, point := range points {
		response = append(response, NetWorthPointResponse{
			Period:   point.Period,
			NetWorth: money.ToMajor(point.NetWorthCents),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleSpendingByCategory returns the top-five category breakdown.
// Query params: from, to (YYYY-MM-DD, default last 30 days).
func (h *AnalyticsHandler) HandleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "Invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if v := q.Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "Invalid to date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	buckets, err := h.analytics.SpendingByCategory(r.Context(), userID, from, to)
	if err != nil {
		log.Printf("User %d: failed to compute spending: %v", userID, err)
		http.Error(w, "Failed to compute spending", http.StatusInternalServerError)
		return
	}

	response := make([]CategorySpendResponse, 0, len(buckets))
	for _, bucket := range buckets {
		response = append(response, CategorySpendResponse{
			Category: bucket.Category,
			Total:    money.ToMajor(bucket.TotalCents),
			Percent:  bucket.Percent,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleCashFlow returns zero-filled income/expense buckets.
// Query param: granularity (daily, weekly, monthly, yearly; default monthly).
func (h *AnalyticsHandler) HandleCashFlow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	granularity := analytics.GranularityMonthly
	if v := r.URL.Query().Get("granularity"); v != "" {
		granularity = analytics.Granularity(v)
	}

	buckets, err := h.analytics.CashFlow(r.Context(), userID, granularity)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) {
			http.Error(w, "Invalid granularity", http.StatusBadRequest)
			return
		}
		log.Printf("User %d: failed to compute cash flow: %v", userID, err)
		http.Error(w, "Failed to compute cash flow", http.StatusInternalServerError)
		return
	}

	response := make([]CashFlowBucketResponse, 0, len(buckets))
	for _, bucket := range buckets {
		response = append(response, CashFlowBucketResponse{
			Period:  bucket.Period,
			Income:  money.ToMajor(bucket.IncomeCents),
			Expense: money.ToMajor(bucket.ExpenseCents),
			Net:     money.ToMajor(bucket.NetCents),
		})
	}
	writeJSON(w, http.StatusOK, response)
}
