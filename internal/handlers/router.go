package handlers

import (
	"cryptopath-gateway/internal/events"
	"cryptopath-gateway/internal/services"
	"cryptopath-gateway/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Router handles HTTP routing setup
type Router struct {
	proxyHandler    *ProxyHandler
	walletHandler   *WalletHandler
	settingsHandler *SettingsHandler
	eventsHandler   *EventsHandler
	healthHandler   *HealthHandler
}

// RouterDeps bundles the services the routes are built on
type RouterDeps struct {
	Gateway    *services.GatewayService
	Reconciler *services.WalletReconciler
	Balances   services.BalanceSource
	Settings   *services.SettingsService
	Health     *services.HealthService
	Hub        *events.Hub
	Metrics    *metrics.Collector
}

// NewRouter creates a new Router instance with all handlers
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		proxyHandler:    NewProxyHandler(deps.Gateway),
		walletHandler:   NewWalletHandler(deps.Reconciler, deps.Balances),
		settingsHandler: NewSettingsHandler(deps.Settings),
		eventsHandler:   NewEventsHandler(deps.Hub),
		healthHandler:   NewHealthHandler(deps.Health, deps.Gateway, deps.Metrics),
	}
}

// SetupRoutes configures all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	api := engine.Group("/api")
	{
		api.GET("/proxy", r.proxyHandler.GetProxy)

		wallet := api.Group("/wallet")
		{
			wallet.GET("", r.walletHandler.GetBalance)
			wallet.POST("/connect", r.walletHandler.Connect)
			wallet.POST("/disconnect", r.walletHandler.Disconnect)
			wallet.GET("/session", r.walletHandler.GetSession)
			wallet.GET("/events", r.eventsHandler.Stream)
		}

		settings := api.Group("/settings/:userId")
		{
			settings.GET("", r.settingsHandler.GetSettings)
			settings.GET("/profile", r.settingsHandler.GetProfile)
			settings.PUT("/profile", r.settingsHandler.UpdateProfile)
			settings.POST("/profile/save", r.settingsHandler.SaveProfile)
			settings.POST("/wallets", r.settingsHandler.AddWallet)
			settings.DELETE("/wallets/:id", r.settingsHandler.RemoveWallet)
			settings.POST("/wallets/:id/default", r.settingsHandler.SetDefaultWallet)
			settings.POST("/sync", r.settingsHandler.Sync)
		}
	}
}

// SetupHealthRoutes configures health check and diagnostics routes
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.healthHandler.GetHealth)
		health.GET("/live", r.healthHandler.GetLiveness)
		health.GET("/ready", r.healthHandler.GetReadiness)
		health.GET("/db", r.healthHandler.GetDatabaseHealth)
	}

	engine.GET("/metrics", r.healthHandler.GetMetrics)
	engine.GET("/status", r.healthHandler.GetStatus)
}
