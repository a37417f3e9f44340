package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "HomeFinder API"
	serviceVersion = "1.0.0"
)

// SystemHandler serves service metadata and liveness endpoints
type SystemHandler struct {
	BaseHandler
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{started: time.Now()}
}

// SystemInfoResponse describes the running service
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string `json:"name" example:"HomeFinder API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	StartedAt string `json:"started_at" example:"2026-01-23T12:00:00Z"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns service name, version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      serviceName,
		Version:   serviceVersion,
		GoVersion: runtime.Version(),
		StartedAt: h.started.UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Liveness check for the API process
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
