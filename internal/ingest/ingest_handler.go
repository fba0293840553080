package ingest

import (
	"context"
	"io"
	"net/http"
	"time"

	"go-skud/internal/event"
	"go-skud/internal/shared/contextutil"
	"go-skud/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxEventBody = 1 << 20

type Handler struct {
	service Service
	metrics *ingestMetrics
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, metrics: globalIngestMetrics()}
}

// ReceiveEvent accepts a terminal push in any content type and always
// answers 200 with a status line, so terminals never retry a payload the
// pipeline has already seen.
func (h *Handler) ReceiveEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBody+1))
	if err != nil {
		contextutil.GetLogger(ctx, zap.L()).Warn("read event body failed", zap.Error(err))
		response.Text(c, http.StatusOK, StatusError)
		return
	}
	if len(body) > maxEventBody {
		response.Text(c, http.StatusOK, StatusNoPayload)
		return
	}

	res := h.service.Process(context.WithoutCancel(ctx), event.RawEvent{
		SourceAddr: c.ClientIP(),
		Body:       string(body),
		ReceivedAt: time.Now(),
	})
	response.Text(c, http.StatusOK, res.Status)
}

// RateLimited answers a push dropped by the per-terminal limiter.
func (h *Handler) RateLimited(c *gin.Context) {
	h.metrics.recordThrottled()
	contextutil.GetLogger(c.Request.Context(), zap.L()).Warn("terminal push rate limited",
		zap.String("source_addr", c.ClientIP()),
	)
	response.Text(c, http.StatusOK, StatusRateLimited)
}
