package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agileboard-api/internal/config"
	"agileboard-api/internal/http/handler"
	"agileboard-api/internal/observability/logger"
	"agileboard-api/internal/telemetry"

	"github.com/stretchr/testify/assert"
)

func newTestRouterDeps() RouterDeps {
	log, _ := logger.New("test", "error")
	return RouterDeps{
		Cfg:               &config.Config{OTELServiceName: "test"},
		Log:               log,
		Prom:              telemetry.NewProm(),
		WorkspaceHandler:  &handler.WorkspaceHandler{},
		PermissionHandler: &handler.PermissionHandler{},
		ProjectHandler:    &handler.ProjectHandler{},
		TaskHandler:       &handler.TaskHandler{},
		CommentHandler:    &handler.CommentHandler{},
		MessageHandler:    &handler.MessageHandler{},
	}
}

// TestHealthEndpoint verifies /health returns 200 without dependencies
func TestHealthEndpoint(t *testing.T) {
	r := buildRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "health endpoint should return 200")
	assert.Equal(t, "OK", w.Body.String())
}

// TestHealthEndpoint_ReturnsRequestID verifies X-Request-Id header is returned
func TestHealthEndpoint_ReturnsRequestID(t *testing.T) {
	r := buildRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

// TestV1RequiresAuthentication verifies the API group rejects anonymous calls
func TestV1RequiresAuthentication(t *testing.T) {
	r := buildRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/v1/workspaces", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_AUTHORIZATION")
}

func TestMetricsEndpoint(t *testing.T) {
	r := buildRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "go_info")
	assert.Contains(t, w.Body.String(), "agileboard_fanout_failures_total")
}

func TestOpenAPIEndpoint(t *testing.T) {
	r := buildRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi:")
}
