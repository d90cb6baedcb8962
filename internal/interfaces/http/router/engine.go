package router

import (
	"github.com/erp/layaway/internal/infrastructure/auth"
	"github.com/erp/layaway/internal/infrastructure/logger"
	"github.com/erp/layaway/internal/infrastructure/security"
	"github.com/erp/layaway/internal/infrastructure/telemetry"
	"github.com/erp/layaway/internal/interfaces/http/handler"
	"github.com/erp/layaway/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Health   *handler.HealthHandler
	Layaway  *handler.LayawayHandler
	Ledger   *handler.TransactionHandler
	Audit    *handler.AuditHandler
	Store    *handler.StoreHandler
	Security *handler.SecurityHandler
}

// EngineConfig carries everything NewEngine wires into the middleware chain.
// Nil collaborators switch the matching middleware off.
type EngineConfig struct {
	Logger         *zap.Logger
	JWTService     *auth.JWTService
	TokenBlacklist auth.TokenBlacklist
	Limiter        *security.Limiter
	Events         *security.EventLogger
	MeterProvider  *telemetry.MeterProvider

	Tracing   middleware.TracingConfig
	Profiling middleware.ProfilingConfig
	CORS      middleware.CORSConfig
	Swagger   middleware.SwaggerConfig

	MaxBodySize    int64
	TrustedProxies []string
	// HeaderFallback accepts X-Store-ID and X-Actor-ID without a token
	HeaderFallback bool
}

// NewEngine builds the gin engine with the global middleware chain, the
// health and swagger endpoints and every /api/v1 route.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	_ = engine.SetTrustedProxies(cfg.TrustedProxies)

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.HTTPMetrics(cfg.MeterProvider))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.Limiter != nil {
		engine.Use(middleware.RateLimit(cfg.Limiter, cfg.Events))
	}

	var jwtMiddleware, docsAuth gin.HandlerFunc
	if cfg.JWTService != nil {
		jwtCfg := middleware.DefaultJWTConfig(cfg.JWTService)
		jwtCfg.TokenBlacklist = cfg.TokenBlacklist
		jwtCfg.Events = cfg.Events
		jwtCfg.Logger = log
		jwtMiddleware = middleware.JWTAuthMiddleware(jwtCfg)

		// the API chain skips /swagger, the docs guard must not
		jwtCfg.SkipPaths = nil
		jwtCfg.SkipPathPrefixes = nil
		docsAuth = middleware.JWTAuthMiddleware(jwtCfg)
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
		engine.GET("/api/v1/health", h.Health.Health)
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, docsAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	if jwtMiddleware != nil {
		r.Use(jwtMiddleware)
	}
	storeCfg := middleware.DefaultStoreContextConfig()
	storeCfg.HeaderFallback = cfg.HeaderFallback
	storeCfg.Events = cfg.Events
	r.Use(
		middleware.StoreContext(storeCfg),
		middleware.TracingAttributeInjector(),
		middleware.Profiling(cfg.Profiling),
	)

	for _, group := range DomainGroups(h) {
		r.Register(group)
	}
	r.Setup()
	return engine
}

// DomainGroups returns the route groups for the handlers that are set
func DomainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.Layaway != nil {
		orders := NewDomainGroup("layaway", "/layaway/orders")
		orders.POST("", h.Layaway.CreateOrder)
		orders.GET("", h.Layaway.ListOrders)
		orders.GET("/:id", h.Layaway.GetOrder)
		orders.POST("/:id/payments", h.Layaway.ApplyPayment)
		orders.POST("/:id/cancel", h.Layaway.CancelOrder)
		groups = append(groups, orders)
	}

	if h.Ledger != nil {
		transactions := NewDomainGroup("ledger", "/ledger/transactions")
		transactions.GET("", h.Ledger.ListTransactions)
		transactions.GET("/balance", h.Ledger.ActiveBalance)
		transactions.POST("/:id/refund", h.Ledger.Refund)
		transactions.POST("/:id/void", h.Ledger.Void)
		transactions.POST("/:id/notes", h.Ledger.AppendNote)
		transactions.POST("/:id/printed", h.Ledger.MarkPrinted)
		groups = append(groups, transactions)
	}

	if h.Audit != nil {
		audit := NewDomainGroup("audit", "/audit")
		audit.GET("/entities/:id/history", h.Audit.History)
		audit.POST("/exports", h.Audit.Export)
		groups = append(groups, audit)
	}

	if h.Store != nil {
		store := NewDomainGroup("store", "/store")
		store.GET("/tax-config", h.Store.GetTaxConfig)
		store.PUT("/tax-config", h.Store.UpdateTaxConfig)
		groups = append(groups, store)
	}

	if h.Security != nil {
		sec := NewDomainGroup("security", "/security")
		sec.GET("/events", h.Security.RecentEvents)
		groups = append(groups, sec)
	}

	return groups
}
