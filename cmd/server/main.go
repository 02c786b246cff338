package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptopath-gateway/internal/config"
	"cryptopath-gateway/internal/events"
	"cryptopath-gateway/internal/handlers"
	"cryptopath-gateway/internal/middleware"
	"cryptopath-gateway/internal/provider"
	"cryptopath-gateway/internal/services"
	"cryptopath-gateway/internal/store"
	"cryptopath-gateway/pkg/logger"
	"cryptopath-gateway/pkg/metrics"
	"cryptopath-gateway/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Server represents the main application server
type Server struct {
	httpServer    *http.Server
	config        *config.Config
	authService   *services.AuthService
	gateway       *services.GatewayService
	reconciler    *services.WalletReconciler
	settings      *services.SettingsService
	balances      *services.EthBalanceSource
	settingsStore *store.MongoSettingsStore
	redisClient   *redis.Client
	rateLimiter   *ratelimiter.RateLimiter
	collector     *metrics.Collector
	router        *handlers.Router
}

func main() {
	cfg := config.LoadConfig()

	loggerConfig := &logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
	}

	if err := logger.Initialize(loggerConfig); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()

	log.Info("Starting CryptoPath gateway",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("upstream_base_url", cfg.Upstream.BaseURL),
		zap.String("rpc_endpoint", cfg.Chain.RPCEndpoint),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.Duration("gate_min_interval", cfg.RateGate.MinInterval),
		zap.Duration("session_ttl", cfg.Wallet.SessionTTL),
		zap.String("log_level", cfg.Logging.Level),
	)

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	log := logger.GetLogger()

	log.Info("Initializing server components")

	collector := metrics.NewCollector()
	hub := events.NewHub()

	log.Debug("Initializing authentication service")
	authService, err := services.NewAuthService(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	log.Debug("Connecting to redis")
	redisClient := store.NewRedisClient(cfg.Redis)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis ping failed, local stores degraded", zap.Error(err))
		}
		cancel()
	}

	log.Debug("Initializing remote settings store")
	settingsStore, err := store.NewMongoSettingsStore(&cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings store: %w", err)
	}

	log.Debug("Initializing upstream client and gateway")
	upstream := services.NewEtherscanClient(&cfg.Upstream)
	gateway := services.NewGatewayService(upstream, cfg, collector)

	log.Debug("Initializing balance source")
	balances, err := services.NewEthBalanceSource(cfg.Chain.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize balance source: %w", err)
	}

	log.Debug("Initializing wallet reconciler")
	sessionStore := store.NewRedisSessionStore(redisClient, cfg.Wallet.SessionKey)
	walletProvider := provider.NewMemoryProvider()
	reconciler := services.NewWalletReconciler(walletProvider, sessionStore, balances, hub, cfg.Wallet.SessionTTL)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := reconciler.Restore(ctx); err != nil {
			log.Warn("Session restore failed, starting disconnected", zap.Error(err))
		}
		cancel()
	}

	log.Debug("Initializing settings service")
	settingsCache := store.NewRedisSettingsCache(redisClient)
	settings := services.NewSettingsService(settingsCache, settingsStore, collector)

	log.Debug("Initializing rate limiter")
	rateLimiter := ratelimiter.New(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowSize)

	healthService := services.NewHealthService(settingsStore, redisClient, upstream)

	log.Debug("Initializing router")
	router := handlers.NewRouter(handlers.RouterDeps{
		Gateway:    gateway,
		Reconciler: reconciler,
		Balances:   balances,
		Settings:   settings,
		Health:     healthService,
		Hub:        hub,
		Metrics:    collector,
	})

	log.Info("Server components initialized successfully")

	return &Server{
		config:        cfg,
		authService:   authService,
		gateway:       gateway,
		reconciler:    reconciler,
		settings:      settings,
		balances:      balances,
		settingsStore: settingsStore,
		redisClient:   redisClient,
		rateLimiter:   rateLimiter,
		collector:     collector,
		router:        router,
	}, nil
}

// Start starts the HTTP server with graceful shutdown handling
func (s *Server) Start() error {
	log := logger.GetLogger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	s.setupMiddleware(engine)
	s.setupRoutes(engine)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:           engine,
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Info("HTTP server configured",
		zap.String("address", s.httpServer.Addr),
		zap.Duration("read_timeout", s.config.Server.ReadTimeout),
		zap.Duration("write_timeout", s.config.Server.WriteTimeout),
	)

	s.startCleanupRoutines()

	go func() {
		log.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	return s.waitForShutdown()
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware(engine *gin.Engine) {
	// Recovery first so panics in later middleware are caught
	engine.Use(logger.RecoveryMiddleware())
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.PerformanceMiddleware(s.collector))
	engine.Use(s.corsMiddleware())

	// Rate limiting before auth to stop credential-probing bursts
	engine.Use(s.rateLimiter.Middleware())
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes(engine *gin.Engine) {
	// Health and diagnostics routes skip authentication
	s.router.SetupHealthRoutes(engine)

	engine.Use(middleware.AuthMiddleware(s.authService))
	s.router.SetupRoutes(engine)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// startCleanupRoutines starts background cleanup tasks
func (s *Server) startCleanupRoutines() {
	log := logger.GetLogger()

	go func() {
		ticker := time.NewTicker(s.config.RateLimit.CleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			s.rateLimiter.Cleanup()
		}
	}()

	log.Info("Background cleanup routines started")
}

// waitForShutdown waits for interrupt signal and performs graceful shutdown
func (s *Server) waitForShutdown() error {
	log := logger.GetLogger()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Info("Shutting down HTTP server", zap.Duration("timeout", 30*time.Second))

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.cleanup()

	log.Info("Server gracefully stopped")
	return nil
}

// cleanup performs cleanup of all services
func (s *Server) cleanup() {
	log := logger.GetLogger()

	log.Info("Cleaning up services...")

	if s.gateway != nil {
		s.gateway.Stop()
	}

	if s.reconciler != nil {
		s.reconciler.Close()
	}

	if s.balances != nil {
		s.balances.Close()
	}

	if s.settingsStore != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.settingsStore.Close(ctx); err != nil {
			log.Error("Error closing settings store", zap.Error(err))
		}
		cancel()
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}

	if s.authService != nil {
		if err := s.authService.Close(); err != nil {
			log.Error("Error closing auth service", zap.Error(err))
		}
	}

	if err := logger.GetLogger().Sync(); err != nil {
		fmt.Printf("Error syncing logger: %v\n", err)
	}

	log.Info("Cleanup completed")
}
