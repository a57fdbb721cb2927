package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := newEcho()
	h := NewHealthHandler(nil)

	c, rec := newJSONContext(e, http.MethodGet, "/health", "")
	if err := h.Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		deps       map[string]PingFunc
		wantCode   int
		wantStatus string
	}{
		{name: "all up", deps: map[string]PingFunc{"mongodb": ok, "redis": ok}, wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "redis down", deps: map[string]PingFunc{"mongodb": ok, "redis": down}, wantCode: http.StatusServiceUnavailable, wantStatus: "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			h := NewHealthHandler(tt.deps)

			c, rec := newJSONContext(e, http.MethodGet, "/health/ready", "")
			if err := h.Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tt.wantStatus || len(resp.Dependencies) != 2 {
				t.Fatalf("unexpected payload: %+v", resp)
			}
		})
	}
}
