package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appconfig "feeledger/internal/config"
	"feeledger/internal/db"
	httpserver "feeledger/internal/http"
	"feeledger/internal/http/handlers"
	"feeledger/internal/http/middleware"
	"feeledger/internal/notify"
	"feeledger/internal/password"
	"feeledger/internal/redisclient"
	"feeledger/internal/repository"
	"feeledger/internal/service"
	"feeledger/internal/sessions"
	"feeledger/internal/snapshot"
	"feeledger/internal/ws"
)

// App wires dependencies for the ledger service.
type App struct {
	server *httpserver.Server
	hub    *notify.Hub
	db     *sql.DB
	redis  *redis.Client
	logger *zap.Logger
}

// New builds the application graph.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.EnsureSchema(schemaCtx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	var redisClient *redis.Client
	var sessionStore service.SessionStore
	if cfg.Redis.Addr != "" {
		redisClient, err = redisclient.New(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		sessionStore = sessions.NewStore(redisClient, cfg.JWTExpiration())
	} else {
		logger.Info("no redis configured, using in-memory session store")
		sessionStore = sessions.NewMemoryStore(cfg.JWTExpiration())
	}

	ledgerRepo := repository.NewLedgerRepository(sqlDB)
	staffRepo := repository.NewStaffRepository(sqlDB)
	auditRepo := repository.NewAuditRepository(sqlDB)

	hasher := password.NewBcryptHasher(0)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	authSvc := service.NewAuthService(staffRepo, hasher, tokenSvc, sessionStore, logger)

	hub := notify.NewHub(64, logger)
	gate := service.NewAdminGate(staffRepo, hasher, logger)
	auditRecorder := service.NewAuditRecorder(auditRepo, logger)
	ledgerSvc := service.NewLedgerService(ledgerRepo, gate, auditRecorder, hub, logger)
	analyticsSvc := service.NewAnalyticsService(ledgerRepo, cfg.Location())

	codec := snapshot.NewCodec(cfg.Snapshot.Secret)
	snapshotSvc := snapshot.NewService(codec, ledgerRepo, staffRepo, auditRecorder, hub, logger)

	wsServer := ws.NewServer(hub, cfg.PingInterval(), logger)

	routes := httpserver.Routes{
		Login:     handlers.NewLoginHandler(authSvc),
		Logout:    handlers.NewLogoutHandler(authSvc),
		Me:        handlers.NewMeHandler(authSvc),
		VerifyPin: handlers.NewVerifyPinHandler(ledgerSvc),

		ListLedger: handlers.NewListLedgerHandler(ledgerSvc),
		CreateTx:   handlers.NewCreateTransactionHandler(ledgerSvc),
		EditTx:     handlers.NewEditTransactionHandler(ledgerSvc),
		VoidTx:     handlers.NewVoidTransactionHandler(ledgerSvc),

		SearchStudents: handlers.NewSearchStudentsHandler(ledgerSvc),
		GetStudent:     handlers.NewGetStudentHandler(ledgerSvc),

		Analytics: handlers.NewAnalyticsHandler(analyticsSvc),
		Audit:     handlers.NewAuditHandler(auditRecorder),

		ExportSnapshot: handlers.NewExportSnapshotHandler(snapshotSvc),
		ImportSnapshot: handlers.NewImportSnapshotHandler(snapshotSvc),

		WS:     wsServer.HandleWS,
		Health: handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes, middleware.Auth(tokenSvc))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		hub:    hub,
		db:     sqlDB,
		redis:  redisClient,
		logger: logger,
	}, nil
}

// Run starts the notifier dispatcher and serves HTTP traffic until context
// cancellation.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
