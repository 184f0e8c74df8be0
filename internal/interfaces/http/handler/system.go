package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles system information endpoints
type SystemHandler struct {
	BaseHandler
	startedAt time.Time
	version   string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{
		startedAt: time.Now(),
		version:   version,
	}
}

// Ping responds with pong
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}

// Info returns version and runtime information
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, gin.H{
		"version":    h.version,
		"go_version": runtime.Version(),
		"uptime":     time.Since(h.startedAt).String(),
		"time":       time.Now().Format(time.RFC3339),
	})
}
