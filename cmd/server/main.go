package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/config"
	"github.com/niaga-platform/service-cartdrawer/internal/database"
	"github.com/niaga-platform/service-cartdrawer/internal/events"
	"github.com/niaga-platform/service-cartdrawer/internal/handlers"
	"github.com/niaga-platform/service-cartdrawer/internal/logger"
	"github.com/niaga-platform/service-cartdrawer/internal/middleware"
	"github.com/niaga-platform/service-cartdrawer/internal/monitoring"
	"github.com/niaga-platform/service-cartdrawer/internal/proxy"
	"github.com/niaga-platform/service-cartdrawer/internal/repository"
	"github.com/niaga-platform/service-cartdrawer/internal/routes"
	"github.com/niaga-platform/service-cartdrawer/internal/services"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize Sentry for error tracking
	sentryMonitor, err := monitoring.NewSentryMonitor(&monitoring.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		ServiceName:      cfg.App.Name,
		TracesSampleRate: 0.1,
	}, zapLogger)
	if err != nil {
		zapLogger.Warn("Failed to initialize Sentry", zap.Error(err))
	}
	defer sentryMonitor.Flush(2 * time.Second)

	// Connect to database
	db, err := database.Connect(cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// Connect to Redis; settings are served uncached when it is unreachable
	var redisClient *redis.Client
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, settings caching disabled", zap.Error(err))
	} else {
		redisClient = rdb
		zapLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Host+":"+cfg.Redis.Port))
	}
	cancelPing()

	// Connect to NATS (optional)
	var natsConn *nats.Conn
	var eventPublisher *events.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			zapLogger.Warn("Failed to connect to NATS, event publishing disabled", zap.Error(err))
		} else {
			zapLogger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
			eventPublisher = events.NewPublisher(natsConn, zapLogger)
		}
	}

	// Initialize repositories
	settingsRepo := repository.NewSettingsRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Initialize services
	settingsService := services.NewSettingsService(
		settingsRepo,
		offerRepo,
		eventPublisher,
		&services.SettingsServiceConfig{
			Redis:    redisClient,
			CacheTTL: time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		},
		zapLogger,
	)
	analyticsService := services.NewAnalyticsService(eventRepo, eventPublisher, zapLogger)

	// Start NATS subscriber so external settings writes invalidate the cache
	var eventSubscriber *events.Subscriber
	if natsConn != nil {
		eventSubscriber = events.NewSubscriber(natsConn, settingsService, zapLogger)
		if err := eventSubscriber.Start(); err != nil {
			zapLogger.Warn("Failed to start event subscriber", zap.Error(err))
		}
	}

	// App-proxy signature verification
	var proxySignature *proxy.Signature
	if cfg.Proxy.Secret != "" {
		proxySignature = proxy.NewSignature(cfg.Proxy.Secret)
	} else {
		zapLogger.Warn("No app proxy secret configured, proxy settings route will reject all requests")
	}

	// Initialize handlers
	settingsHandler := handlers.NewSettingsHandler(settingsService, proxySignature, zapLogger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, zapLogger)

	// Set Gin mode
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Apply global middleware
	router.Use(sentryMonitor.GinMiddleware())
	router.Use(sentryMonitor.RecoveryMiddleware())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.CORSWithOrigins(cfg.HTTP.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	// Rate limiting
	rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	stopCleanup := make(chan struct{})
	rateLimiter.StartCleanup(time.Minute, 10*time.Minute, stopCleanup)
	router.Use(rateLimiter.Middleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "cartdrawer",
			"time":    time.Now().UTC(),
		})
	})

	// Setup routes
	routes.SetupRoutes(router, &routes.RouteConfig{
		SettingsHandler:  settingsHandler,
		AnalyticsHandler: analyticsHandler,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zapLogger.Info("Cart drawer settings service starting on port " + cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	close(stopCleanup)
	if eventSubscriber != nil {
		eventSubscriber.Stop()
	}
	if natsConn != nil {
		natsConn.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}
