package ingest

import (
	"go-skud/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RegisterRoutes mounts the terminal push endpoint. Terminals are limited to
// perSecond events per address with a burst of burst; pushes over the limit
// still get a 200 so the terminal does not replay them.
func RegisterRoutes(r *gin.RouterGroup, h *Handler, perSecond rate.Limit, burst int) {
	hikvision := r.Group("/hikvision")
	hikvision.Use(middleware.RateLimitByIP(perSecond, burst, h.RateLimited))
	{
		hikvision.POST("/event", h.ReceiveEvent)
	}
}
