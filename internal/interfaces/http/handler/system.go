package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles health and service metadata endpoints
type SystemHandler struct {
	BaseHandler
	appName string
	env     string
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(appName, env string) *SystemHandler {
	return &SystemHandler{
		appName: appName,
		env:     env,
		started: time.Now(),
	}
}

// Health reports service liveness
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Info reports service metadata
// GET /
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, gin.H{
		"service":     h.appName,
		"environment": h.env,
	})
}
