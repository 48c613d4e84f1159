package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Backend   string    `json:"backend"`
	Sessions  string    `json:"sessions"`
	Clients   int       `json:"clients"`
}

// SessionStatus is what the health check reads from the session hub.
type SessionStatus interface {
	Ping(ctx context.Context) error
	Len() int
}

type HealthHandler struct {
	serviceName string
	version     string
	backend     string
	sessions    SessionStatus
}

func NewHealthHandler(serviceName, version, backend string, sessions SessionStatus) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		backend:     backend,
		sessions:    sessions,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Backend:   h.backend,
		Sessions:  "disabled",
	}

	if h.sessions != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.sessions.Ping(pingCtx); err != nil {
			resp.Status = "degraded"
			resp.Sessions = "down"
		} else {
			resp.Sessions = "up"
		}
		resp.Clients = h.sessions.Len()
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
