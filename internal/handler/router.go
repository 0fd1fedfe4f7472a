package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmk-apps/blog/internal/metrics"
	"github.com/jmk-apps/blog/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	IdentityResolver middleware.IdentityResolver
	RateLimiter      *middleware.RateLimiter
	CSRFConfig       middleware.CSRFConfig
	Logger           *slog.Logger
	Metrics          metrics.MetricsCollector
	Gatherer         prometheus.Gatherer

	Renderer *Renderer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 記事・コメント
	PostService    PostServiceInterface
	CommentService CommentServiceInterface

	// RSS
	FeedConfig FeedHandlerConfig

	HealthCheck HealthCheckFunc
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Identity → Logging → RateLimit(General) → CSRF
//
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Renderer)
	postHandler := NewPostHandler(deps.PostService, deps.CommentService, deps.Renderer)
	pageHandler := NewPageHandler(deps.Renderer, deps.HealthCheck)
	feedHandler := NewFeedHandler(deps.PostService, deps.FeedConfig)

	mountOps(r, pageHandler, deps.Gatherer)

	// --- サイト ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRecoveryMiddleware(deps.Renderer.RenderStatus))
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewIdentityMiddleware(deps.IdentityResolver))
		r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}
		csrfConfig := deps.CSRFConfig
		if csrfConfig.ErrorWriter == nil {
			csrfConfig.ErrorWriter = deps.Renderer.RenderStatus
		}
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))

		r.NotFound(deps.Renderer.RenderNotFound)

		r.Get("/", postHandler.Index)
		r.Get("/about", pageHandler.About)
		r.Get("/contact", pageHandler.Contact)
		r.Get("/feed.xml", feedHandler.Feed)

		r.Get("/post/{id}", postHandler.Show)
		r.Post("/post/{id}", postHandler.Comment)

		r.Get("/new-post", postHandler.NewPostPage)
		r.Post("/new-post", postHandler.CreatePost)
		r.Get("/edit-post/{id}", postHandler.EditPostPage)
		r.Post("/edit-post/{id}", postHandler.UpdatePost)
		r.Post("/delete/{id}", postHandler.DeletePost)

		// ログイン・登録のPOSTには専用のレート制限を追加
		authLimit := func(next http.Handler) http.Handler { return next }
		if deps.RateLimiter != nil {
			authLimit = deps.RateLimiter.AuthMiddleware()
		}
		r.Get("/register", authHandler.RegisterPage)
		r.With(authLimit).Post("/register", authHandler.Register)
		r.Get("/login", authHandler.LoginPage)
		r.With(authLimit).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	return r
}

// NewOpsRouter は/healthと/metricsのみを提供するルーターを返す。
// HTMLを配信しないworkerプロセスが使用する。
func NewOpsRouter(gatherer prometheus.Gatherer, healthCheck HealthCheckFunc) http.Handler {
	r := chi.NewRouter()
	mountOps(r, NewPageHandler(nil, healthCheck), gatherer)
	return r
}

// mountOps は運用エンドポイントを登録する。
func mountOps(r chi.Router, pages *PageHandler, gatherer prometheus.Gatherer) {
	r.Get("/health", pages.Health)
	if gatherer != nil {
		r.Handle("/metrics", metrics.Handler(gatherer))
	}
}
