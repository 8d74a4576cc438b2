package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/lorahalle/storefront/storefront-backend/internal/auth"
	"github.com/lorahalle/storefront/storefront-backend/internal/config"
	"github.com/lorahalle/storefront/storefront-backend/internal/events"
	"github.com/lorahalle/storefront/storefront-backend/internal/handler"
	"github.com/lorahalle/storefront/storefront-backend/internal/middleware"
	"github.com/lorahalle/storefront/storefront-backend/internal/repository/memory"
	"github.com/lorahalle/storefront/storefront-backend/internal/repository/postgres"
	redisrepo "github.com/lorahalle/storefront/storefront-backend/internal/repository/redis"
	"github.com/lorahalle/storefront/storefront-backend/internal/repository/storage"
	"github.com/lorahalle/storefront/storefront-backend/internal/service"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/lorahalle/storefront/storefront-backend/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Storefront API
// @version 1.0
// @description Session store (cart, wishlist, user, cart drawer), catalog and checkout for the storefront.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	// Initialize repositories
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	snapshots, closeSnapshots, err := newSnapshotStore(cfg, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot storage")
	}
	defer closeSnapshots()
	log.Info().Str("backend", cfg.SnapshotBackend).Msg("Snapshot storage ready")

	// Image storage is optional
	var imageService *service.ImageService
	if cfg.S3.Enabled() {
		imageRepo, err := storage.NewS3ImageRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		imageService = service.NewImageService(imageRepo)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Image storage enabled")
	} else {
		log.Warn().Msg("S3_BUCKET not set, product image uploads are disabled")
	}

	// Order events
	var orderPublisher service.OrderEventPublisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Kafka")
		}
		defer kafkaPublisher.Close()
		orderPublisher = kafkaPublisher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.OrderTopic).Msg("Order events enabled")
	}

	authProvider, err := newAuthProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize auth provider")
	}

	// Live updates
	hub := websocket.NewHub()

	// Initialize services
	sessionService := service.NewSessionService(snapshots, authProvider, hub, log.Logger, service.SessionConfig{
		IdleTTL: cfg.SessionIdleTTL,
	})
	sessionService.Start()
	defer sessionService.Stop()

	catalogService := service.NewCatalogService(productRepo, imageService)
	checkoutService := service.NewCheckoutService(orderRepo, orderPublisher, hub)

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Store:     handler.NewStoreHandler(sessionService, catalogService, cfg.TaxRate),
		Session:   handler.NewSessionHandler(sessionService),
		Catalog:   handler.NewCatalogHandler(catalogService),
		Order:     handler.NewOrderHandler(sessionService, checkoutService),
		WebSocket: handler.NewWebSocketHandler(hub, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.SessionHeader},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"sessions": sessionService.Count(),
			"clients":  hub.TotalClientCount(),
		})
	})

	// Prometheus metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Register API routes
	sessionMiddleware := middleware.Session(middleware.SessionOptions{Secure: cfg.IsProduction()})
	handler.RegisterRoutes(e, sessionMiddleware, rateLimiter, sessionService, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newSnapshotStore builds the configured snapshot backend and its cleanup
func newSnapshotStore(cfg *config.Config, pool *pgxpool.Pool) (store.SnapshotStore, func(), error) {
	switch cfg.SnapshotBackend {
	case config.BackendMemory:
		log.Warn().Msg("Using in-memory snapshots, sessions will not survive a restart")
		return memory.NewSnapshotRepository(), func() {}, nil
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return redisrepo.NewSnapshotRepository(client, cfg.SnapshotTTL), func() { client.Close() }, nil
	default:
		return postgres.NewSnapshotRepository(pool), func() {}, nil
	}
}

// newAuthProvider builds the identity provider for the configured auth mode
func newAuthProvider(cfg *config.Config) (store.AuthProvider, error) {
	switch cfg.AuthMode {
	case config.AuthModeHMAC:
		return auth.NewHMACProvider(cfg.AuthHMACSecret), nil
	case config.AuthModeDemo:
		log.Warn().Msg("AUTH_MODE=demo, every login signs in the demo user")
		return auth.NewStaticProvider(auth.DemoUser), nil
	default:
		provider, err := auth.NewAuth0Provider(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("session_id", middleware.GetSessionID(c)).
				Msg("request")

			return nil
		}
	}
}
