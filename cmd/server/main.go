package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	groupbuyapp "github.com/groupbuy/backend/internal/application/groupbuy"
	orderapp "github.com/groupbuy/backend/internal/application/order"
	rankingapp "github.com/groupbuy/backend/internal/application/ranking"
	"github.com/groupbuy/backend/internal/domain/shared"
	"github.com/groupbuy/backend/internal/infrastructure/cache"
	"github.com/groupbuy/backend/internal/infrastructure/config"
	"github.com/groupbuy/backend/internal/infrastructure/event"
	"github.com/groupbuy/backend/internal/infrastructure/logger"
	"github.com/groupbuy/backend/internal/infrastructure/persistence"
	"github.com/groupbuy/backend/internal/infrastructure/scheduler"
	"github.com/groupbuy/backend/internal/infrastructure/telemetry"
	"github.com/groupbuy/backend/internal/interfaces/http/handler"
	"github.com/groupbuy/backend/internal/interfaces/http/middleware"
	"github.com/groupbuy/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting GroupBuy Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing before anything that emits spans
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel, 200*time.Millisecond)

	// Initialize database connection with custom logger
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
		err := telemetry.RegisterOtelGorm(db.DB, telemetry.DBTracingConfig{
			Enabled:  true,
			DBSystem: "postgresql",
		}, log)
		if err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Connect to Redis for the member lock, ranking cache, and idempotency
	// store. A dev environment without Redis falls back to in-memory
	// implementations; admission stays correct, just not across processes.
	var (
		memberLock       orderapp.MemberLock
		rankingStore     rankingapp.Store
		idempotencyStore shared.IdempotencyStore
	)
	redisClient, err := cache.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(err))
		memberLock = cache.NewInMemoryMemberLock()
		rankingStore = cache.NewInMemoryRankingStore()
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
		memberLock = cache.NewRedisMemberLock(redisClient)
		rankingStore = cache.NewRedisRankingStore(redisClient)
		idempotencyStore = cache.NewRedisIdempotencyStore(redisClient, "groupbuy:idempotency:")
	}

	// Initialize repositories
	groupBuyRepo := persistence.NewGormGroupBuyRepository(db.DB)
	optionRepo := persistence.NewGormOptionRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize application services
	lifecycleService := groupbuyapp.NewLifecycleService(groupBuyRepo, optionRepo, log)
	admissionService := orderapp.NewAdmissionService(txScope, memberLock, log)
	admissionService.SetLockTTL(cfg.Admission.MemberLockTTL)
	rankingService := rankingapp.NewService(rankingStore, orderRepo, log)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	stockDepletedHandler := groupbuyapp.NewStockDepletedHandler(lifecycleService, log)
	orderActivityHandler := rankingapp.NewOrderActivityHandler(rankingService, log)

	// Wrap handlers so redelivered events are processed at most once
	wrapped := event.WrapHandlersWithIdempotency(
		[]shared.EventHandler{stockDepletedHandler, orderActivityHandler},
		idempotencyStore,
		shared.DefaultIdempotencyConfig(),
		log,
	)
	for _, h := range wrapped {
		eventBus.Subscribe(h)
	}
	log.Info("Event handlers registered",
		zap.Strings("stock_depleted_events", stockDepletedHandler.EventTypes()),
		zap.Strings("order_activity_events", orderActivityHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	lifecycleService.SetEventPublisher(eventBus)
	admissionService.SetEventPublisher(eventBus)

	// Initialize batch close scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultConfig()
		schedulerConfig.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
		schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
		executor := scheduler.NewGroupBuyJobExecutor(lifecycleService, rankingService, log)
		jobScheduler := scheduler.NewScheduler(schedulerConfig, executor, log)
		if err := jobScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()

		triggerConfig := scheduler.DefaultBatchCloseTriggerConfig()
		triggerConfig.DailyCloseHour = cfg.Scheduler.BatchCloseHour
		triggerConfig.SweepInterval = cfg.Scheduler.SweepInterval
		batchCloseTrigger := scheduler.NewBatchCloseTrigger(triggerConfig, jobScheduler, log)
		if err := batchCloseTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start batch close trigger", zap.Error(err))
		}
		defer func() {
			if err := batchCloseTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping batch close trigger", zap.Error(err))
			}
		}()

		rankingTriggerConfig := scheduler.DefaultRankingSyncTriggerConfig()
		rankingTriggerConfig.Period = cfg.Scheduler.RankingSyncPeriod
		rankingTriggerConfig.DailyFullSyncHour = cfg.Scheduler.RankingFullSyncHour
		rankingSyncTrigger := scheduler.NewRankingSyncTrigger(rankingTriggerConfig, jobScheduler, log)
		if err := rankingSyncTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start ranking sync trigger", zap.Error(err))
		}
		defer func() {
			if err := rankingSyncTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping ranking sync trigger", zap.Error(err))
			}
		}()

		log.Info("Scheduler started",
			zap.Int("batch_close_hour", cfg.Scheduler.BatchCloseHour),
			zap.Duration("sweep_interval", cfg.Scheduler.SweepInterval),
			zap.Duration("ranking_sync_period", cfg.Scheduler.RankingSyncPeriod),
		)
	}

	// Initialize HTTP handlers
	groupBuyHandler := handler.NewGroupBuyHandler(lifecycleService)
	orderHandler := handler.NewOrderHandler(admissionService)
	rankingHandler := handler.NewRankingHandler(rankingService, cfg.Ranking.TopLimit)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so recovery and request logs carry it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(groupBuyHandler).
		Register(orderHandler).
		Register(rankingHandler)
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
