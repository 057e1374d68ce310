package main

import (
	"context"
	"log"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/analytics"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/source"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/domain/sync"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/firebase"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/postgres"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/infrastructure/provider"
	httphandlers "github.com/cobi-dev0615/Fintech-project-sub001/internal/interfaces/http"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/auth"
	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	ConnectionHandler  *httphandlers.ConnectionHandler
	AccountHandler     *httphandlers.AccountHandler
	TransactionHandler *httphandlers.TransactionHandler
	CardHandler        *httphandlers.CardHandler
	InvestmentHandler  *httphandlers.InvestmentHandler
	AnalyticsHandler   *httphandlers.AnalyticsHandler
	InstitutionHandler *httphandlers.InstitutionHandler
	DeviceHandler      *httphandlers.DeviceHandler

	// Auth
	Tokens *auth.TokenManager

	// For the scheduler job provider
	SyncService    *sync.Service
	ConnectionRepo *postgres.ConnectionRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize repositories
	connectionRepo := postgres.NewConnectionRepository(db)
	institutionRepo := postgres.NewInstitutionRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	cardRepo := postgres.NewCardRepository(db)
	investmentRepo := postgres.NewInvestmentRepository(db)
	deviceTokenRepo := postgres.NewDeviceTokenRepository(db)

	// Initialize provider client
	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey)

	// Initialize FCM messenger if configured. The sync service treats a
	// nil messenger as "notifications disabled".
	var messenger sync.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewMessenger(ctx, cfg.Firebase.CredentialsFile, deviceTokenRepo.ActiveTokens, deviceTokenRepo.Deactivate)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase messenger: %v", err)
		} else {
			messenger = fcm
			log.Println("Firebase messenger initialized")
		}
	}

	// Initialize the reconciliation engine
	syncService := sync.NewService(
		providerClient,
		connectionRepo,
		institutionRepo,
		accountRepo,
		transactionRepo,
		cardRepo,
		investmentRepo,
		messenger,
		sync.Config{
			ManualCooldown: cfg.Sync.ManualCooldown,
			PageSize:       cfg.Provider.PageSize,
		},
	)

	// Initialize the dual-source read path. The legacy reader doubles as
	// the probe deciding which source serves a request.
	legacyReader := postgres.NewLegacyReader(db)
	ledgerReader := postgres.NewLedgerReader(db)
	readers := source.NewResolver(legacyReader, legacyReader, ledgerReader)

	analyticsService := analytics.NewService(readers)

	// Initialize auth components
	tokens := auth.NewTokenManager(cfg.JWT.Secret)

	// Initialize handlers
	connectionHandler := httphandlers.NewConnectionHandler(syncService)
	accountHandler := httphandlers.NewAccountHandler(readers)
	transactionHandler := httphandlers.NewTransactionHandler(readers, transactionRepo)
	cardHandler := httphandlers.NewCardHandler(readers, cardRepo)
	investmentHandler := httphandlers.NewInvestmentHandler(readers)
	analyticsHandler := httphandlers.NewAnalyticsHandler(analyticsService)
	institutionHandler := httphandlers.NewInstitutionHandler(institutionRepo, syncService)
	deviceHandler := httphandlers.NewDeviceHandler(deviceTokenRepo)

	return &Dependencies{
		DB:                 db,
		ConnectionHandler:  connectionHandler,
		AccountHandler:     accountHandler,
		TransactionHandler: transactionHandler,
		CardHandler:        cardHandler,
		InvestmentHandler:  investmentHandler,
		AnalyticsHandler:   analyticsHandler,
		InstitutionHandler: institutionHandler,
		DeviceHandler:      deviceHandler,
		Tokens:             tokens,
		SyncService:        syncService,
		ConnectionRepo:     connectionRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
