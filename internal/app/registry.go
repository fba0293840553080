package app

import (
	"net/http"

	"go-skud/internal/attendance"
	"go-skud/internal/config"
	"go-skud/internal/ingest"
	"go-skud/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type modules struct {
	ingest     *ingest.Handler
	attendance *attendance.Handler
	cfg        config.Config
}

func newRouter(cfg config.Config, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.ContextLogger(logger))
	registerOps(r)
	return r
}

// registerOps mounts health and metrics endpoints.
func registerOps(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerModules(router *gin.Engine, m modules) {
	// Terminals are configured with /api/hikvision/event.
	ingest.RegisterRoutes(router.Group("/api"), m.ingest,
		rate.Limit(m.cfg.IngestRatePerSecond), m.cfg.IngestRateBurst)

	api := router.Group("/api/v1")
	{
		attendance.RegisterRoutes(api, m.attendance)
	}
}
