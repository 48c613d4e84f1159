package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	err     error
	clients int
}

func (f fakeSessions) Ping(context.Context) error { return f.err }
func (f fakeSessions) Len() int                   { return f.clients }

func serveHealth(t *testing.T, handler *HealthHandler, method string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	handler.RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(method, "/health", nil))

	var response HealthResponse
	if rr.Code != http.StatusMethodNotAllowed {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	}
	return rr, response
}

func TestHealthCheck(t *testing.T) {
	rr, response := serveHealth(t, NewHealthHandler("test-service", "1.0.0", "memory", fakeSessions{clients: 2}), http.MethodGet)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "test-service", response.Service)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Equal(t, "memory", response.Backend)
	assert.Equal(t, "up", response.Sessions)
	assert.Equal(t, 2, response.Clients)
}

func TestHealthCheckSessionStoreDown(t *testing.T) {
	rr, response := serveHealth(t, NewHealthHandler("test-service", "1.0.0", "firebase", fakeSessions{err: errors.New("dial tcp: refused")}), http.MethodGet)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "down", response.Sessions)
}

func TestHealthCheckWithoutSessions(t *testing.T) {
	rr, response := serveHealth(t, NewHealthHandler("test-service", "1.0.0", "memory", nil), http.MethodGet)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "disabled", response.Sessions)
}

func TestHealthCheckMethodNotAllowed(t *testing.T) {
	rr, _ := serveHealth(t, NewHealthHandler("test-service", "1.0.0", "memory", nil), http.MethodPost)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
