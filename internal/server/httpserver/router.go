package httpserver

import (
	"github.com/gin-gonic/gin"

	"github.com/zumicash/zumi-go/internal/core/service"
	"github.com/zumicash/zumi-go/internal/server/httpserver/handler"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

// RouterConfig holds the collaborators of the HTTP router.
type RouterConfig struct {
	Handler *handler.Handler

	// Admin guards /admin/v1. Without configured keys every admin
	// request is rejected.
	Admin *service.AdminAuthenticator

	// Limiters throttles /api per client IP. Nil disables throttling.
	Limiters *service.RateLimiterRegistry

	Metrics *metric.Registry
	Logger  logger.Logger
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(cfg *RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "http")
	admin := cfg.Admin
	if admin == nil {
		admin = service.NewAdminAuthenticator(service.AdminAuthConfig{})
	}
	h := cfg.Handler

	r := gin.New()
	r.HandleMethodNotAllowed = true
	_ = r.SetTrustedProxies(nil)
	r.Use(Recover(log), RequestID(log))
	if cfg.Metrics != nil {
		r.Use(Metrics(cfg.Metrics))
	}
	r.Use(AccessLog(log))

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.Limiters != nil {
		api.Use(RateLimit(cfg.Limiters))
	}
	{
		privacy := api.Group("/privacy")
		privacy.GET("/sessions", h.ListSessions)
		privacy.GET("/sessions/:id", h.GetSession)
		privacy.POST("/sessions/:id/status", h.UpdateStatus)
		privacy.POST("/sessions/:id/submit", h.SubmitTransaction)
		privacy.POST("/sessions/:id/sync", h.SyncStatus)
		privacy.GET("/sessions/:id/webhook", h.LastWebhook)
		privacy.POST("/:type", h.CreateOperation)
		privacy.GET("/:type", h.GetOperation)

		api.GET("/balance/:address", h.GetBalance)

		api.POST("/proofs/verify", h.VerifyProofBatch)
		api.GET("/proofs/:hash", h.GetProof)
		api.GET("/proofs/:hash/metadata", h.ProofMetadata)
		api.POST("/proofs/:hash/verify", h.VerifyProof)

		api.POST("/webhooks/chain", h.IngestWebhook)
		api.GET("/stats", h.Stats)
	}

	adminGroup := r.Group("/admin/v1", AdminAuth(admin))
	{
		adminGroup.POST("/gc/trigger", h.TriggerSweep)
		adminGroup.GET("/status/summary", h.StatusSummary)
	}

	r.NoRoute(noRoute)
	r.NoMethod(noMethod)
	return r
}

// NewLocalRouter builds the engine served on the local management socket.
// It carries the admin routes without key checks; filesystem permissions
// on the socket are the access control.
func NewLocalRouter(cfg *RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "local")
	h := cfg.Handler

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(Recover(log), RequestID(log), AccessLog(log))

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.POST("/admin/v1/gc/trigger", h.TriggerSweep)
	r.GET("/admin/v1/status/summary", h.StatusSummary)

	r.NoRoute(noRoute)
	r.NoMethod(noMethod)
	return r
}
