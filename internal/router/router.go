package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/config"
	"swap-backend/internal/handlers"
	"swap-backend/internal/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Claims    *handlers.ClaimHandler
	Root      *handlers.RootHandler
	AdminAuth *handlers.AdminAuthHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

// SetupRouter builds the gin engine
func SetupRouter(cfg *config.Config, h Handlers, logger *logrus.Logger) *gin.Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// ============ Check ============
	r.GET("/ping", handlers.PingHandler)
	r.GET("/health", h.Health.HealthCheckHandler)

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ Event stream ============
	r.GET("/ws/claims", h.WebSocket.HandleWebSocket)

	// ============ API Routes ============
	SetupSwapRoutes(r, cfg, h, logger)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}

// requestLogger logs every request the way the rest of the service logs: structured, one line.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"client_ip": c.ClientIP(),
		}).Debug("HTTP request")
	}
}
