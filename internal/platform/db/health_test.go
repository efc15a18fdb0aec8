package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func runHealth(t *testing.T, pingErr error) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ping := func(context.Context) error { return pingErr }
	stats := func() *PoolStats { return &PoolStats{TotalConns: 3, IdleConns: 2, MaxConns: 20, Healthy: true} }

	if err := healthHandler(ping, stats, zerolog.Nop())(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return rec, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec, body := runHealth(t, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body.Status != "healthy" {
		t.Errorf("expected healthy, got %s", body.Status)
	}
	if body.Pool == nil || body.Pool.MaxConns != 20 || !body.Pool.Healthy {
		t.Errorf("unexpected pool stats %+v", body.Pool)
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	rec, body := runHealth(t, errors.New("dial tcp 10.1.2.3:5432: connection refused"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body.Status != "unhealthy" {
		t.Errorf("expected unhealthy, got %s", body.Status)
	}
	if body.Pool.Healthy {
		t.Error("expected pool to be marked unhealthy")
	}
	if strings.Contains(rec.Body.String(), "10.1.2.3") {
		t.Error("health response must not leak connection details")
	}
}
