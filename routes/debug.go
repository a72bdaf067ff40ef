package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/warden-io/warden-panel/database"
	"github.com/warden-io/warden-panel/models"
)

type ClientCounter interface {
	ClientCount() int
}

// SetupDebugRoutes exposes health and queue information of the mock API.
func SetupDebugRoutes(router *gin.Engine, db *database.Database, hub ClientCounter) {
	debugGroup := router.Group("/api/v1/debug")
	{
		debugGroup.GET("/health", func(c *gin.Context) {
			status := http.StatusOK
			body := gin.H{"database": "ok", "websocket_clients": hub.ClientCount(), "time": time.Now()}

			if sqlDB, err := db.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				status = http.StatusServiceUnavailable
				body["database"] = "unavailable"
			}
			c.JSON(status, body)
		})

		debugGroup.GET("/pending-operations", func(c *gin.Context) {
			var records []models.OperationRecord
			if err := db.DB.WithContext(c.Request.Context()).
				Where("state = ?", models.OperationStateCreated).
				Order("created_at").
				Find(&records).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"pending_operations": len(records),
				"operations":         records,
				"time":               time.Now(),
			})
		})
	}
}
