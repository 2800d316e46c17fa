package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/use-agent/scrapechat/api/handler"
	"github.com/use-agent/scrapechat/api/middleware"
	"github.com/use-agent/scrapechat/chat"
	"github.com/use-agent/scrapechat/config"
	"github.com/use-agent/scrapechat/monitoring"
	"github.com/use-agent/scrapechat/output"
	"github.com/use-agent/scrapechat/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → Metrics
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics endpoints are intentionally outside auth so monitoring
// probes always work.
func NewRouter(svc *chat.Service, st *store.Postgres, w *output.Writer, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(monitoring.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(st, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.Tokens))
	} else {
		protected.Use(middleware.Auth(nil))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Chat
	protected.POST("/chat", handler.Chat(svc))

	// Artifacts
	protected.GET("/download/:filename", handler.Download(w))

	// Sessions
	protected.POST("/sessions", handler.CreateSession(st))
	protected.GET("/sessions", handler.ListSessions(st))
	protected.GET("/sessions/:id/history", handler.SessionHistory(st))
	protected.PUT("/sessions/:id", handler.RenameSession(st))
	protected.DELETE("/sessions/:id", handler.DeleteSession(st))

	return r
}
