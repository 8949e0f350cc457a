package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kurbar/trustly-go/internal/core/ports"
	"github.com/kurbar/trustly-go/internal/service"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	NotificationSvc *service.NotificationService
	Processor       NotificationProcessor // nil = acknowledge without business action
	HealthCheckers  []ports.HealthChecker
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(recovery(deps.Logger))
	r.Use(requestLogger(deps.Logger))

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	notificationHandler := NewNotificationHandler(deps.NotificationSvc, deps.Processor, deps.Logger)
	r.POST("/notifications", notificationHandler.Receive)

	return r
}

// recovery turns panics into 500s with a logged stack.
func recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("panic recovered")
		c.AbortWithStatus(500)
	})
}

// requestLogger emits one structured event per request.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
