package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/nextup/internal/service"
	"go.uber.org/zap"
)

// Pinger is anything whose backend can be probed, the repository store in
// practice.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	registry *service.Registry
	store    Pinger
	logger   *zap.Logger
}

func NewHealthHandler(registry *service.Registry, store Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{registry: registry, store: store, logger: logger}
}

// Check handles GET /health. Public: load balancers call it.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("health check: storage unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": "error"})
		return
	}

	stats, err := h.registry.Stats(ctx)
	if err != nil {
		h.logger.Error("health check: stats failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"db":           "ok",
		"shopCount":    stats.ShopCount,
		"bookingCount": stats.BookingCount,
	})
}
