package main

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	importapp "github.com/earthcare/backend/internal/application/import"
	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/infrastructure/auth"
	"github.com/earthcare/backend/internal/infrastructure/cache"
	"github.com/earthcare/backend/internal/infrastructure/config"
	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
	"github.com/earthcare/backend/internal/infrastructure/logger"
	"github.com/earthcare/backend/internal/infrastructure/migration"
	"github.com/earthcare/backend/internal/infrastructure/persistence"
	"github.com/earthcare/backend/internal/infrastructure/scheduler"
	"github.com/earthcare/backend/internal/infrastructure/storage"
	"github.com/earthcare/backend/internal/infrastructure/telemetry"
	"github.com/earthcare/backend/internal/interfaces/http/handler"
	"github.com/earthcare/backend/internal/interfaces/http/middleware"
	"github.com/earthcare/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	_ "github.com/earthcare/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Earth Care Network Import API
//	@version		1.0
//	@description	Bulk CSV import of enterprises, people and opportunities into the Earth Care Network directory.

//	@contact.name	API Support
//	@contact.url	https://github.com/earthcare/backend

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
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Earth Care Network import service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Traces and metrics share the collector endpoint
	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := applyMigrations(&cfg.Database, log); err != nil {
			log.Fatal("Failed to apply database migrations", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel, cfg.Telemetry.DBSlowQueryThresh)

	// Initialize database connection with custom logger
	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbInstrumentation, err := telemetry.InstrumentGorm(db.DB, tel.Meter("ecn-backend/db"), telemetry.GormConfig{
		Tracing:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		Metrics:            cfg.Telemetry.Enabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBName:             cfg.Database.DBName,
	}, log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	defer func() {
		_ = dbInstrumentation.Close()
	}()

	// Initialize repositories
	jobRepo := persistence.NewGormImportJobRepository(db.DB)
	rowErrorRepo := persistence.NewGormImportRowErrorRepository(db.DB)
	enterpriseRepo := persistence.NewGormEnterpriseRepository(db.DB)
	personRepo := persistence.NewGormPersonRepository(db.DB)
	opportunityRepo := persistence.NewGormOpportunityRepository(db.DB)

	// Raw upload storage
	var fileStore bulk.RawFileStore
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := storage.NewS3FileStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create S3 file store", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare upload bucket", zap.Error(err))
		}
		fileStore = s3Store
	default:
		fileStore = persistence.NewDatabaseFileStore(db.DB)
	}
	log.Info("Upload storage ready", zap.String("driver", cfg.Storage.Driver))

	// Per-job lock
	workerID := cfg.Import.WorkerID
	if workerID == "" {
		if host, err := os.Hostname(); err == nil {
			workerID = host
		} else {
			workerID = importapp.DefaultOrchestratorConfig().WorkerID
		}
	}
	jobLock, err := cache.NewJobLockFactory(cfg.Redis, workerID,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateLock()
	if err != nil {
		log.Fatal("Failed to create job lock", zap.Error(err))
	}
	if closer, ok := jobLock.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Error("Error closing job lock", zap.Error(err))
			}
		}()
	}

	importMetrics, err := telemetry.NewImportMetrics(tel.Meter("ecn-backend/import"))
	if err != nil {
		log.Fatal("Failed to create import metrics", zap.Error(err))
	}

	// Import pipeline
	orchestrator := importapp.NewOrchestrator(importapp.OrchestratorDeps{
		Jobs:      jobRepo,
		RowErrors: rowErrorRepo,
		Files:     fileStore,
		Lock:      jobLock,
		Resolver:  importapp.NewDuplicateResolver(enterpriseRepo, personRepo, opportunityRepo),
		Writer:    importapp.NewRecordWriter(enterpriseRepo, personRepo, opportunityRepo),
	}, importapp.OrchestratorConfig{
		WorkerID:           workerID,
		CheckpointInterval: cfg.Import.CheckpointInterval,
		LeaseDuration:      cfg.Import.LeaseDuration,
		LockTTL:            cfg.Import.LockTTL,
	}, log, importapp.WithMetrics(importMetrics))

	importService := importapp.NewImportService(jobRepo, rowErrorRepo, fileStore, orchestrator, importapp.ServiceConfig{
		MaxFileSize:      cfg.Import.MaxFileSize,
		StatusErrorLimit: cfg.Import.StatusErrorLimit,
	}, log)

	if cfg.Import.RecoverOnStart {
		recovered, err := orchestrator.RecoverPending(ctx)
		if err != nil {
			log.Error("Failed to recover pending import jobs", zap.Error(err))
		} else {
			log.Info("Pending import jobs recovered", zap.Int("count", recovered))
		}
	}

	recoveryScheduler, err := scheduler.NewRecoveryScheduler(orchestrator, log, scheduler.RecoverySchedulerConfig{
		Enabled:  cfg.Import.RecoveryInterval > 0,
		Interval: cfg.Import.RecoveryInterval,
	})
	if err != nil {
		log.Fatal("Failed to create import recovery scheduler", zap.Error(err))
	}
	if err := recoveryScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start import recovery scheduler", zap.Error(err))
	}

	// Initialize HTTP handlers
	jwtService := auth.NewJWTService(cfg.JWT)
	importHandler := handler.NewImportHandler(importService, cfg.Import.MaxFileSize)

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

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Start the server span, enriched once the chain has run
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Metrics - Record request counters and latency
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}), middleware.SpanEnricher())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.AccessLog(log))
	engine.Use(middleware.HTTPMetrics(tel))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	})

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Import routes: authenticated, plan gated, uploads size limited and optionally rate limited
	uploadGuards := []gin.HandlerFunc{middleware.BodyLimit(cfg.HTTP.MaxBodySize,
		middleware.WithLimitErrorCode(csvimport.ErrCodeImportFileTooLarge))}
	var uploadLimiter *middleware.RateLimiter
	if cfg.Import.UploadRateLimit > 0 {
		uploadLimiter = middleware.NewRateLimiter(cfg.Import.UploadRateLimit, cfg.Import.UploadRateWindow)
		uploadGuards = append(uploadGuards, middleware.RateLimitByWorkspace(uploadLimiter))
		log.Info("Upload rate limiting enabled",
			zap.Int("uploads", cfg.Import.UploadRateLimit),
			zap.Duration("window", cfg.Import.UploadRateWindow),
		)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.NewImportRoutes(router.ImportRoutesConfig{
		Handler: importHandler,
		Guards: []gin.HandlerFunc{
			jwtMiddleware,
			middleware.RequirePlan(auth.Plan(cfg.Import.MinPlan), log),
		},
		UploadGuards: uploadGuards,
	}))
	r.Setup()
	log.Debug("Routes registered", zap.Strings("routes", r.Routes()))

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := recoveryScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Import recovery scheduler did not stop in time", zap.Error(err))
	}

	// Running jobs stop at the next row and are marked failed as interrupted
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		log.Warn("Import workers did not stop in time", zap.Error(err))
	}

	if uploadLimiter != nil {
		uploadLimiter.Stop()
	}

	log.Info("Server exited gracefully")
}

// applyMigrations brings the schema up to date on a dedicated connection,
// since the migrator closes the pool it is given
func applyMigrations(cfg *config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, cfg.MigrationsPath, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

// healthHandler reports database reachability and pool pressure
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.FromGin(c)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}

		status := "healthy"
		pool, err := db.Pool()
		if err != nil {
			reqLog.Warn("Reading pool stats failed", zap.Error(err))
		} else if pool.Saturated() {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
			"pool":     pool,
		})
	}
}
