package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appaudit "github.com/erp/layaway/internal/application/audit"
	applayaway "github.com/erp/layaway/internal/application/layaway"
	appledger "github.com/erp/layaway/internal/application/ledger"
	"github.com/erp/layaway/internal/application/notification"
	appstore "github.com/erp/layaway/internal/application/store"
	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/infrastructure/auth"
	"github.com/erp/layaway/internal/infrastructure/cache"
	"github.com/erp/layaway/internal/infrastructure/config"
	"github.com/erp/layaway/internal/infrastructure/event"
	"github.com/erp/layaway/internal/infrastructure/logger"
	"github.com/erp/layaway/internal/infrastructure/persistence"
	"github.com/erp/layaway/internal/infrastructure/scheduler"
	"github.com/erp/layaway/internal/infrastructure/security"
	"github.com/erp/layaway/internal/infrastructure/storage"
	"github.com/erp/layaway/internal/infrastructure/telemetry"
	"github.com/erp/layaway/internal/interfaces/http/handler"
	"github.com/erp/layaway/internal/interfaces/http/middleware"
	"github.com/erp/layaway/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/erp/layaway/docs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// notificationDedupTTL is how long a delivered order confirmation is remembered
const notificationDedupTTL = 24 * time.Hour

//	@title			Layaway Ledger API
//	@version		1.0
//	@description	Installment orders, the transaction ledger and its audit trail for retail stores.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, logLevel := logger.Build(logCfg)
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting layaway ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Telemetry: traces, metrics, logs and profiles, each a no-op when disabled
	bootCtx := context.Background()

	loggerProvider, err := telemetry.NewLoggerProvider(bootCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		otelCore := loggerProvider.NewZapCore(logLevel)
		log = log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, otelCore)
		}))
	}

	tracerProvider, err := telemetry.NewTracerProvider(bootCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(bootCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link profiles to spans", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(telemetry.DefaultSlowQueryThreshold),
		logger.WithConstraintClassifier(persistence.IsDuplicateKeyErr),
		logger.WithIgnoreRecordNotFoundError(true),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = tracerProvider.IsEnabled()
		tracingCfg.LogFullSQL = cfg.App.Env == "development"
		if err := telemetry.NewDBTracingPlugin(tracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(bootCtx)
		defer dbMetrics.Stop()
	}

	// Redis backs the tax config cache, token revocation and notification dedup
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(bootCtx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	taxCache, err := cache.NewTaxConfigCache(cfg.TaxCache, redisClient, log)
	if err != nil {
		log.Fatal("Failed to create tax config cache", zap.Error(err))
	}
	defer func() {
		_ = taxCache.Close()
	}()
	if tiered, ok := taxCache.(*cache.TieredTaxConfigCache); ok {
		go func() {
			if err := tiered.StartInvalidationSubscription(backgroundCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Tax config invalidation subscription stopped", zap.Error(err))
			}
		}()
	}

	// Events are written to the outbox inside the ledger transaction
	eventSerializer := event.NewLayawayEventSerializer()
	outboxPublisher := event.NewOutboxPublisher(eventSerializer, cfg.Event.MaxRetries)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	scope := persistence.NewGormTransactionScope(db.DB,
		persistence.WithEventWriter(outboxPublisher),
		persistence.WithGeneratorOptions(persistence.WithAdvisoryLocks(true)),
	)

	// Repositories
	orderRepo := persistence.NewGormLayawayOrderRepository(db.DB)
	paymentRepo := persistence.NewGormLayawayPaymentRepository(db.DB)
	transactionRepo := persistence.NewGormLedgerTransactionRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	taxConfigRepo := persistence.NewGormTaxConfigRepository(db.DB)

	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("layaway.ledger"))
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Application services
	recorder := appaudit.NewRecorder(auditRepo, ledgerMetrics, log)
	historyService := appaudit.NewHistoryService(auditRepo)
	taxConfigService := appstore.NewTaxConfigService(taxConfigRepo, taxCache, log)

	ledgerCfg := applayaway.Config{
		OrderNamespace:        namespace(identifier.OrderNamespace, cfg.Ledger.OrderPrefix),
		TransactionNamespace:  namespace(identifier.TransactionNamespace, cfg.Ledger.TransactionPrefix),
		MaxIdentifierAttempts: cfg.Ledger.IdentifierMaxRetries,
	}
	ledgerService := applayaway.NewLedgerService(scope, orderRepo, paymentRepo, recorder, ledgerCfg)
	ledgerService.SetTaxConfigProvider(taxConfigService)
	ledgerService.SetMetrics(ledgerMetrics)
	ledgerService.SetLogger(log)

	transactionService := appledger.NewTransactionService(scope, transactionRepo, recorder, appledger.Config{
		RefundNamespace:       namespace(identifier.RefundNamespace, cfg.Ledger.RefundPrefix),
		MaxIdentifierAttempts: cfg.Ledger.IdentifierMaxRetries,
	})
	transactionService.SetMetrics(ledgerMetrics)
	transactionService.SetLogger(log)

	// Audit exports need object storage; without it the endpoint answers 503
	var auditExporter handler.AuditExporter
	if cfg.Storage.Enabled {
		objectStore, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := objectStore.EnsureBucket(bootCtx); err != nil {
			log.Warn("Failed to ensure export bucket", zap.String("bucket", objectStore.GetBucket()), zap.Error(err))
		}
		exportService := appaudit.NewExportService(auditRepo, objectStore, log)
		exportService.SetLinkTTL(cfg.Storage.PresignExpiration)
		auditExporter = exportService
	}

	// Event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)
	confirmations := notification.NewOrderConfirmationHandler(notification.NewLoggingDispatcher(log), log)
	idempotencyStore := cache.NewIdempotencyStore(redisClient, log)
	defer func() {
		_ = idempotencyStore.Close()
	}()
	eventBus.Subscribe(event.NewIdempotentHandler(confirmations, idempotencyStore, notificationDedupTTL, log))
	log.Info("Event handlers registered", zap.Strings("order_confirmation_events", confirmations.EventTypes()))

	if err := eventBus.Start(bootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorCfg := event.ProcessorConfigFrom(cfg.Event)
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorCfg, log)
		if err := outboxProcessor.Start(backgroundCtx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorCfg.BatchSize),
			zap.Duration("poll_interval", processorCfg.PollInterval),
		)
	}

	overdueChecker := scheduler.NewOverdueChecker(ledgerService, log, scheduler.OverdueCheckerConfigFrom(cfg.Scheduler))
	if err := overdueChecker.Start(backgroundCtx); err != nil {
		log.Fatal("Failed to start overdue checker", zap.Error(err))
	}
	defer func() {
		if err := overdueChecker.Stop(context.Background()); err != nil {
			log.Error("Error stopping overdue checker", zap.Error(err))
		}
	}()

	// Authentication
	securityEvents := security.NewEventLogger(security.DefaultEventCapacity, nil, log)
	var jwtService *auth.JWTService
	var blacklist auth.TokenBlacklist
	if cfg.JWT.Secret != "" {
		jwtService = auth.NewJWTService(cfg.JWT)
		if redisClient != nil {
			blacklist = auth.NewRedisTokenBlacklist(redisClient, "")
		} else {
			blacklist = auth.NewInMemoryTokenBlacklist(nil)
		}
	} else {
		log.Warn("JWT secret not set, bearer tokens are not accepted",
			zap.Bool("store_header_fallback", cfg.HTTP.StoreHeaderFallback))
	}

	var limiter *security.Limiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = security.NewLimiter(security.LimiterConfig{
			Requests: cfg.HTTP.RateLimitRequests,
			Window:   cfg.HTTP.RateLimitWindow,
		}, nil)
		defer limiter.Close()
	}

	// HTTP
	healthChecks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:         log,
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Limiter:        limiter,
		Events:         securityEvents,
		MeterProvider:  meterProvider,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Profiling: middleware.DefaultProfilingConfig(),
		CORS:      corsCfg,
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.HTTP.SwaggerEnabled,
			RequireAuth: cfg.HTTP.SwaggerRequireAuth,
			AllowedIPs:  cfg.HTTP.SwaggerAllowedIPs,
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		HeaderFallback: cfg.HTTP.StoreHeaderFallback,
	}, router.Handlers{
		Health:   handler.NewHealthHandler(version, healthChecks),
		Layaway:  handler.NewLayawayHandler(ledgerService),
		Ledger:   handler.NewTransactionHandler(transactionService),
		Audit:    handler.NewAuditHandler(historyService, auditExporter),
		Store:    handler.NewStoreHandler(taxConfigService),
		Security: handler.NewSecurityHandler(securityEvents),
	})

	// Log level and rate limits follow config.toml edits without a restart
	cfg.Watch(func(updated *config.Config) {
		logger.SetLevel(logLevel, updated.Log.Level)
		if limiter != nil {
			limiter.Reconfigure(updated.HTTP.RateLimitRequests, updated.HTTP.RateLimitWindow)
		}
		log.Info("Configuration reloaded",
			zap.String("log_level", updated.Log.Level),
			zap.Int("rate_limit_requests", updated.HTTP.RateLimitRequests),
		)
	}, func(err error) {
		log.Warn("Ignoring invalid configuration change", zap.Error(err))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancelBackground()

	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Error flushing traces", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Warn("Error flushing metrics", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := loggerProvider.Shutdown(ctx); err != nil {
		log.Warn("Error flushing logs", zap.Error(err))
	}
}

// namespace applies a configured prefix to a standard identifier namespace
func namespace(base identifier.Namespace, prefix string) identifier.Namespace {
	if prefix != "" {
		base.Prefix = prefix
	}
	return base
}
