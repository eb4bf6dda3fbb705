package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	feeapp "github.com/feeledger/backend/internal/application/fee"
	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/auth"
	"github.com/feeledger/backend/internal/infrastructure/cache"
	"github.com/feeledger/backend/internal/infrastructure/config"
	"github.com/feeledger/backend/internal/infrastructure/event"
	"github.com/feeledger/backend/internal/infrastructure/logger"
	"github.com/feeledger/backend/internal/infrastructure/migration"
	"github.com/feeledger/backend/internal/infrastructure/notification"
	"github.com/feeledger/backend/internal/infrastructure/persistence"
	"github.com/feeledger/backend/internal/infrastructure/scheduler"
	"github.com/feeledger/backend/internal/infrastructure/storage"
	"github.com/feeledger/backend/internal/infrastructure/telemetry"
	"github.com/feeledger/backend/internal/interfaces/http/handler"
	"github.com/feeledger/backend/internal/interfaces/http/middleware"
	"github.com/feeledger/backend/internal/interfaces/http/router"
	"github.com/feeledger/backend/migrations"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/feeledger/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Fee Ledger API
//	@version		1.0
//	@description	Fee voucher payment ledger with a maker-checker approval workflow
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.email	support@feeledger.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// OpenTelemetry: traces, metrics and logs share the collector endpoint
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdown(log, "logger provider", loggerProvider.Shutdown)
	log = telemetry.BridgeLogger(log, loggerProvider, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))

	if cfg.Telemetry.ProfilingEnabled {
		profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:         true,
			ServerAddress:   cfg.Telemetry.PyroscopeURL,
			ApplicationName: cfg.Telemetry.ServiceName,
		}, log)
		if err != nil {
			log.Warn("Continuous profiling disabled", zap.Error(err))
		} else {
			defer func() {
				if err := profiler.Stop(); err != nil {
					log.Warn("Error stopping profiler", zap.Error(err))
				}
			}()
			if err := tracerProvider.EnableSpanProfiles(); err != nil {
				log.Warn("Failed to link spans to profiles", zap.Error(err))
			}
		}
	}

	log.Info("Starting fee ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

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

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(sqlDB, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	dbTracing, err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, meterProvider.Meter("feeledger.db"), log)
	if err != nil {
		log.Fatal("Failed to create database tracing plugin", zap.Error(err))
	}
	if err := db.DB.Use(dbTracing); err != nil {
		log.Fatal("Failed to register database tracing plugin", zap.Error(err))
	}
	dbTracing.StartPoolStatsCollection(rootCtx, sqlDB)
	defer dbTracing.Stop()

	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("feeledger.ledger"))
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	voucherRepo := persistence.NewGormFeeVoucherRepository(db.DB)

	// Redis backs idempotency keys and the notification fan-out
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, notifications fall back to the log", zap.Error(err))
			redisClient = nil
		} else {
			defer func() {
				_ = redisClient.Close()
			}()
		}
	}

	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		factory := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(cfg.App.Env != "production"),
		)
		idempotencyStore, err = factory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		if closer, ok := idempotencyStore.(io.Closer); ok {
			defer func() {
				_ = closer.Close()
			}()
		}
	}

	evidenceStorage, err := newEvidenceStorage(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize evidence storage", zap.Error(err))
	}

	// Events are dispatched after commit; notification failures never fail a request
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	notifiers := []notification.Notifier{notification.NewLogNotifier(log)}
	if redisClient != nil {
		notifiers = append(notifiers, notification.NewRedisNotifier(redisClient, cfg.Notification.RedisChannel))
	}
	notificationHandler := notification.NewHandler(notification.NewComposer(cfg.Notification.Locale), notifiers...)
	eventBus.Subscribe(notificationHandler, notificationHandler.EventTypes()...)
	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer shutdown(log, "event bus", eventBus.Stop)

	// Application services
	voucherService := feeapp.NewVoucherService(feeapp.VoucherServiceConfig{
		Repo:             voucherRepo,
		EventPublisher:   eventBus,
		Metrics:          ledgerMetrics,
		Logger:           log,
		OverdueBatchSize: cfg.Scheduler.OverdueBatchSize,
	})
	submissionService := feeapp.NewSubmissionService(feeapp.SubmissionServiceConfig{
		Repo:           voucherRepo,
		Evidence:       evidenceStorage,
		Idempotency:    idempotencyStore,
		IdempotencyTTL: cfg.Idempotency.TTL,
		EventPublisher: eventBus,
		Metrics:        ledgerMetrics,
		Logger:         log,
	})
	approvalEngine := feeapp.NewApprovalEngine(feeapp.ApprovalEngineConfig{
		Repo:           voucherRepo,
		EventPublisher: eventBus,
		Metrics:        ledgerMetrics,
		Logger:         log,
		MaxAttempts:    cfg.Approval.MaxAttempts,
		InitialBackoff: cfg.Approval.InitialBackoff,
		MaxBackoff:     cfg.Approval.MaxBackoff,
	})
	reportingService := feeapp.NewReportingService(voucherRepo)

	// The sweep executor serves both the scheduler and the admin endpoint,
	// so the two never sweep at the same time
	overdueExecutor := scheduler.NewOverdueSweepExecutor(voucherService, log)
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultConfig()
		schedulerConfig.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
		schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout

		sched := scheduler.NewScheduler(schedulerConfig, log, overdueExecutor)
		if err := sched.Start(rootCtx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer shutdown(log, "scheduler", sched.Stop)

		if cfg.Scheduler.OverdueSweepEnabled {
			trigger := scheduler.NewOverdueTrigger(cfg.Scheduler.OverdueInterval, true, sched, log)
			if err := trigger.Start(rootCtx); err != nil {
				log.Fatal("Failed to start overdue trigger", zap.Error(err))
			}
			defer shutdown(log, "overdue trigger", trigger.Stop)
		}
		log.Info("Scheduler started",
			zap.Int("max_concurrent_jobs", schedulerConfig.MaxConcurrentJobs),
			zap.Duration("job_timeout", schedulerConfig.JobTimeout),
			zap.Bool("overdue_sweep", cfg.Scheduler.OverdueSweepEnabled),
			zap.Duration("overdue_interval", cfg.Scheduler.OverdueInterval),
		)
	}

	// Initialize HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)
	feeHandlers := router.FeeHandlers{
		Vouchers: handler.NewFeeVoucherHandler(voucherService, overdueExecutor),
		Payments: handler.NewPaymentHandler(submissionService, approvalEngine),
		Reports:  handler.NewReportHandler(reportingService),
		System:   systemHandler,
	}

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

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Start the server span so later middleware log with trace ids
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Metrics - Count and time requests
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size, larger for evidence uploads
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.Enabled,
		Logger:        log,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimitWithRoutes(cfg.HTTP.MaxBodySize, map[string]int64{
		r.BasePath() + router.EvidenceUploadPath: cfg.Storage.MaxEvidenceSize + 1<<20,
	}))

	// Health check endpoints (outside API versioning)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/healthz", systemHandler.Health)
	engine.NoRoute(systemHandler.NoRoute)

	// JWT authentication for the versioned API. Once the caller is known the
	// span, profile labels and rate limit key pick up the branch and user.
	jwtConfig := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtConfig.Logger = log
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	apiMiddleware := []gin.HandlerFunc{
		jwtMiddleware,
		middleware.TracingAttributeInjector(),
		middleware.ProfilingWithConfig(middleware.ProfilingConfig{
			Enabled:          cfg.Telemetry.ProfilingEnabled,
			SkipPaths:        middleware.DefaultProfilingConfig().SkipPaths,
			SkipPathPrefixes: middleware.DefaultProfilingConfig().SkipPathPrefixes,
		}),
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiterWithBurst(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(cfg.Swagger, jwtMiddleware),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
	}

	r.Use(apiMiddleware...)
	groups := router.RegisterFeeRoutes(r, feeHandlers)
	r.Setup()

	for _, g := range groups {
		for _, route := range g.Routes(r.BasePath()) {
			log.Debug("Route registered",
				zap.String("group", route.Group),
				zap.String("method", route.Method),
				zap.String("path", route.Path),
			)
		}
	}

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
	stopBackground()

	log.Info("Server exited gracefully")
}

// migrateUp applies the embedded schema migrations
func migrateUp(sqlDB *sql.DB, log *zap.Logger) error {
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = m.Close()
	}()
	return m.Up()
}

// newEvidenceStorage picks the proof-of-payment store. The local provider
// keeps nothing and is meant for development.
func newEvidenceStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (fee.EvidenceStorage, error) {
	if cfg.Storage.Provider != "s3" {
		log.Warn("Using stub evidence storage, uploaded proofs are not persisted",
			zap.String("provider", cfg.Storage.Provider),
		)
		return storage.NewStubEvidenceStorage(cfg.Storage.MaxEvidenceSize, cfg.Storage.MaxImageWidth), nil
	}

	s3Storage, err := storage.NewS3EvidenceStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := s3Storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("S3 evidence storage ready", zap.String("bucket", cfg.Storage.Bucket))
	return s3Storage, nil
}

// shutdown runs a component's Stop or Shutdown with a bounded context
func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("Error during shutdown", zap.String("component", name), zap.Error(err))
	}
}
