package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/minwon-api/internal/middleware"
	"github.com/noah-isme/minwon-api/internal/service"
	"github.com/noah-isme/minwon-api/pkg/response"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics    *service.MetricsService
	store      Pinger
	persistent bool
}

// NewMetricsHandler constructs a metrics handler. store may be nil when complaints are
// kept in memory.
func NewMetricsHandler(metrics *service.MetricsService, store Pinger, persistent bool) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: store, persistent: persistent}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary godoc
// @Summary Metrics summary
// @Tags Observability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// Health responds with a generic OK payload for liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the complaint store answers. A memory-only process is ready but
// flagged as not persistent.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if !h.persistent || h.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "persistence": middleware.PersistenceUnavailable})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
