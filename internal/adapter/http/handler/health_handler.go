package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kurbar/trustly-go/internal/core/ports"
)

// HealthCheck returns a handler that pings every dependency and reports
// per-dependency status. Any failing dependency degrades the overall
// status to 503.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		deps := make(map[string]string, len(checkers))

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = "down"
				status = http.StatusServiceUnavailable
			} else {
				deps[checker.Name()] = "up"
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		c.JSON(status, gin.H{"status": overall, "dependencies": deps})
	}
}
