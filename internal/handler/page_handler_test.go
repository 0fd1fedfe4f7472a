package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmk-apps/blog/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestPageHandler_StaticPages(t *testing.T) {
	router := newTestRouter(t, testRouterDeps{})

	tests := []struct {
		path string
		want string
	}{
		{"/about", "About Me"},
		{"/contact", "Contact Me"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(router, getRequest(tt.path, ""))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body should contain %q", tt.want)
			}
		})
	}
}

func TestPageHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		check      HealthCheckFunc
		wantStatus int
		wantBody   string
	}{
		{"nil check is healthy", nil, http.StatusOK, "ok"},
		{"database reachable", func(context.Context) error { return nil }, http.StatusOK, "ok"},
		{"database down", func(context.Context) error { return errors.New("dial tcp: refused") }, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPageHandler(newTestRenderer(t), tt.check)

			w := serve(http.HandlerFunc(h.Health), getRequest("/health", ""))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body["status"] != tt.wantBody {
				t.Errorf("status field = %q, want %q", body["status"], tt.wantBody)
			}
		})
	}
}

func TestNewOpsRouter_ServesHealthAndMetricsOnly(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordSessionsPurged(2)
	router := NewOpsRouter(reg, func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "blog_sessions_purged_total 2") {
		t.Errorf("/metrics should expose purged sessions, got:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/ status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
