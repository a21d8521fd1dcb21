package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports whether the ledger can reach its two backing stores:
// Postgres (lots, sales, invoices) and Redis (notification queue). Both
// checks share one short deadline so a hung store cannot stall the endpoint.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		postgres := "up"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			postgres = "down"
		}

		queue := "up"
		if rdb.Ping(ctx).Err() != nil {
			queue = "down"
		}

		status := http.StatusOK
		if postgres == "down" || queue == "down" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":   http.StatusText(status),
			"postgres": postgres,
			"queue":    queue,
		})
	}
}
