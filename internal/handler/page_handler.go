package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// HealthCheckFunc はデータベース等の依存先の疎通を確認する関数。
type HealthCheckFunc func(ctx context.Context) error

// PageHandler は静的ページとヘルスチェックのHTTPハンドラー。
type PageHandler struct {
	renderer    *Renderer
	healthCheck HealthCheckFunc
}

// NewPageHandler はPageHandlerを生成する。healthCheckがnilの場合は常に正常を返す。
func NewPageHandler(renderer *Renderer, healthCheck HealthCheckFunc) *PageHandler {
	if healthCheck == nil {
		healthCheck = func(context.Context) error { return nil }
	}
	return &PageHandler{renderer: renderer, healthCheck: healthCheck}
}

// About はAboutページを表示する。
// GET /about
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, pageAbout, nil)
}

// Contact はContactページを表示する。
// GET /contact
func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, pageContact, nil)
}

// Health はデータベースの疎通を確認する。
// GET /health
func (h *PageHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.healthCheck(r.Context()); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
