package handler

import (
	"context"
	"net/http"
	"time"

	"comandas/internal/service"
	"comandas/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// Redis is optional: without a client it reports "disabled" and stays healthy.
// "cache" is the state of the breaker guarding the costing cache.
func Health(db *gorm.DB, rdb *redis.Client, cache *service.CosteoCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if db == nil {
			dbStatus = "error"
		} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		var dlq int64
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else if n, err := worker.DLQLength(ctx, rdb, worker.QueueReconciliacion); err == nil {
				dlq = n
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
			"cache": cache.Estado(),
			"dlq":   dlq,
		})
	}
}
