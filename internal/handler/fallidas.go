package handler

import (
	"net/http"

	"comandas/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// FallidasReconciliacion handles GET /v1/reconciliacion/fallidas?limit=.
// Without Redis there is no queue, so the list is always empty.
func FallidasReconciliacion(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := worker.ListDLQ(c.Request.Context(), rdb, worker.QueueReconciliacion, int64(queryInt(c, "limit", 50)))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entries, "total": len(entries)})
	}
}
