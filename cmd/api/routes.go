package main

import (
	"net/http"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/config"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", handleHealth)

	// Provider webhooks are authenticated by item ownership, not by user
	// session: events for unknown items are acknowledged and dropped.
	mux.HandleFunc("/api/webhooks/provider", deps.ConnectionHandler.HandleWebhook)

	// Protected routes
	authMiddleware := middleware.Auth(deps.Tokens)

	mux.Handle("/api/connections", authMiddleware(http.HandlerFunc(deps.ConnectionHandler.HandleConnections)))
	mux.Handle("/api/connections/{id}", authMiddleware(http.HandlerFunc(deps.ConnectionHandler.HandleConnectionByID)))
	mux.Handle("/api/connections/{id}/sync", authMiddleware(http.HandlerFunc(deps.ConnectionHandler.HandleSyncConnection)))
	mux.Handle("/api/accounts", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleListAccounts)))
	mux.Handle("/api/transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleListTransactions)))
	mux.Handle("/api/transactions/{id}", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleTransactionByID)))
	mux.Handle("/api/cards", authMiddleware(http.HandlerFunc(deps.CardHandler.HandleListCards)))
	mux.Handle("/api/cards/{id}/invoices", authMiddleware(http.HandlerFunc(deps.CardHandler.HandleListInvoices)))
	mux.Handle("/api/investments", authMiddleware(http.HandlerFunc(deps.InvestmentHandler.HandleListHoldings)))
	mux.Handle("/api/institutions", authMiddleware(http.HandlerFunc(deps.InstitutionHandler.HandleListInstitutions)))
	mux.Handle("/api/institutions/refresh", authMiddleware(http.HandlerFunc(deps.InstitutionHandler.HandleRefreshInstitutions)))
	mux.Handle("/api/analytics/networth", authMiddleware(http.HandlerFunc(deps.AnalyticsHandler.HandleNetWorthEvolution)))
	mux.Handle("/api/analytics/spending", authMiddleware(http.HandlerFunc(deps.AnalyticsHandler.HandleSpendingByCategory)))
	mux.Handle("/api/analytics/cashflow", authMiddleware(http.HandlerFunc(deps.AnalyticsHandler.HandleCashFlow)))
	mux.Handle("/api/devices", authMiddleware(http.HandlerFunc(deps.DeviceHandler.HandleRegisterDevice)))

	// Apply global middleware
	return middleware.Logging(middleware.Tracing(middleware.CORS(cfg.Server.AllowedHosts)(mux)))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
