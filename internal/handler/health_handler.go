package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/priceforge/priceforge_api/internal/cache"
	"github.com/priceforge/priceforge_api/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.RedisClient
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// GetHealth responds with service, database, and cache status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "disconnected"
	}

	redisStatus := "connected"
	if _, err := h.redis.Exists(ctx, "health:probe"); err != nil {
		redisStatus = "disconnected"
	}

	code := 200
	status := "healthy"
	if dbStatus != "connected" {
		code = 503
		status = "unhealthy"
	}

	utils.Success(c, code, "Service status", gin.H{
		"status":   status,
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
