package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	returnsapp "github.com/returnsdesk/backend/internal/application/returns"
	"github.com/returnsdesk/backend/internal/domain/policy"
	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared"
	"github.com/returnsdesk/backend/internal/infrastructure/auth"
	"github.com/returnsdesk/backend/internal/infrastructure/cache"
	"github.com/returnsdesk/backend/internal/infrastructure/catalog"
	"github.com/returnsdesk/backend/internal/infrastructure/config"
	"github.com/returnsdesk/backend/internal/infrastructure/event"
	"github.com/returnsdesk/backend/internal/infrastructure/logger"
	"github.com/returnsdesk/backend/internal/infrastructure/persistence"
	"github.com/returnsdesk/backend/internal/infrastructure/refund"
	"github.com/returnsdesk/backend/internal/infrastructure/webhook"
	"github.com/returnsdesk/backend/internal/interfaces/http/handler"
	"github.com/returnsdesk/backend/internal/interfaces/http/middleware"
	"github.com/returnsdesk/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting returns decision engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	decisionRepo := persistence.NewGormDecisionRepository(db.DB)
	outcomeRepo := persistence.NewGormExecutionOutcomeRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	// Per-event processing lock. Redis makes the lock shared across
	// replicas; a single instance can run with the in-process locker.
	var locker shared.EventLocker
	if cfg.Redis.Enabled {
		redisLocker, err := cache.NewRedisEventLocker(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		locker = redisLocker
		log.Info("Using Redis event locker", zap.String("addr", cfg.Redis.Addr()))
	} else {
		locker = cache.NewInMemoryEventLocker()
		log.Info("Using in-memory event locker")
	}
	defer func() {
		if err := locker.Close(); err != nil {
			log.Error("Error closing event locker", zap.Error(err))
		}
	}()

	// Upstream adapters
	orderCatalog := catalog.NewClient(cfg.Catalog, log)
	refundGateway := refund.NewHTTPAdapter(cfg.Refund, log)
	refundExecutor := refund.NewExecutor(refundGateway, cfg.Refund, log)

	// Policy pipeline from static per-deployment config
	policyCfg := policyFromConfig(cfg.Policy)
	pipeline := policy.NewPipeline(policyCfg)

	// Application services
	decisionService := returnsapp.NewDecisionService(
		decisionRepo,
		outcomeRepo,
		auditRepo,
		orderCatalog,
		refundExecutor,
		locker,
		pipeline,
		cfg.Intake.EventLockTTL,
		cfg.Intake.MaxConcurrentEvents,
		log,
	)
	decisionService.SetEventPublisher(event.NewLoggingPublisher(log))

	queryService := returnsapp.NewQueryService(decisionRepo, outcomeRepo, auditRepo, policyCfg)

	// JWT for the review/query endpoints; the webhook authenticates with
	// an HMAC signature instead
	jwtService := auth.NewJWTService(cfg.JWT)
	signatureValidator := webhook.NewSignatureValidator(cfg.Intake.WebhookSecret)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request ID, panic recovery, request
	// logging, security headers, CORS, body size limit, JWT.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/webhooks",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// HTTP handlers
	webhookHandler := handler.NewWebhookHandler(signatureValidator, decisionService)
	decisionHandler := handler.NewDecisionHandler(queryService)
	systemHandler := handler.NewSystemHandler(db)

	// Root-level health check outside API versioning, for load balancers
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(webhookHandler).
		Register(decisionHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown. In-flight events keep running to completion
	// because the decision service detaches from request cancellation
	// once it holds the event lock.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// policyFromConfig converts the flat config section into the typed policy
func policyFromConfig(cfg config.PolicyConfig) policy.Config {
	reasons := make([]returns.ReturnReason, 0, len(cfg.AllowedReasons))
	for _, r := range cfg.AllowedReasons {
		reasons = append(reasons, returns.ReturnReason(r))
	}

	return policy.Config{
		ReturnWindowDays:            cfg.ReturnWindowDays,
		AllowedReasons:              reasons,
		RestockingFeePercent:        decimal.NewFromFloat(cfg.RestockingFeePercent),
		AutoApproveVIP:              cfg.AutoApproveVIP,
		AutoApproveDamagedOnArrival: cfg.AutoApproveDamagedOnArrival,
	}
}
