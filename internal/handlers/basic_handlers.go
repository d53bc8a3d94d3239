package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports the state of one dependency; nil means healthy
type HealthCheck func() error

// HealthHandler serves /health
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler creates a health handler over the named checks
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheckHandler GET /health
func (h *HealthHandler) HealthCheckHandler(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	components := gin.H{}
	for _, name := range names {
		if err := h.checks[name](); err != nil {
			status = "degraded"
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"service":    "swap-backend",
		"components": components,
	})
}

// PingHandler GET /ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
