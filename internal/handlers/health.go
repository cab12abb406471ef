package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartcart/optimizer-service/internal/database"
)

var startedAt = time.Now()

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Database      string `json:"database"`
}

// HealthCheck reports service liveness and database reachability. A
// reachable pool answers 200; a configured but unreachable one answers 503
// so orchestrators stop routing traffic here.
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:        "ok",
		Service:       "optimizer-service",
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		Database:      "not configured",
	}

	if database.Pool() != nil {
		if err := database.Status(c.Request.Context()); err != nil {
			response.Status = "degraded"
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
	}

	c.JSON(http.StatusOK, response)
}
