// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmk-apps/blog/internal/middleware"
	"github.com/jmk-apps/blog/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password, name string) (*model.Session, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はユーザー登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	config   AuthHandlerConfig
	renderer *Renderer
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, renderer *Renderer) *AuthHandler {
	return &AuthHandler{
		service:  service,
		config:   config,
		renderer: renderer,
	}
}

// authPage はログイン・登録フォームの表示内容。
type authPage struct {
	Name    string
	Email   string
	Errors  formErrors
	Message string
}

// RegisterPage は登録フォームを表示する。
// GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, pageRegister, authPage{})
}

// Register はユーザー登録を処理し、成功時はログイン状態にしてトップへ戻す。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form := parseRegisterForm(r)
	page := authPage{Name: form.Name, Email: form.Email}

	if errs := form.validate(); len(errs) > 0 {
		page.Errors = errs
		h.renderer.Render(w, r, http.StatusUnprocessableEntity, pageRegister, page)
		return
	}

	session, err := h.service.Register(r.Context(), form.Email, form.Password, form.Name)
	if err != nil {
		// 登録済みのメールアドレスはログイン画面に誘導する
		if model.HasCode(err, model.ErrCodeEmailAlreadyRegistered) {
			h.renderer.Render(w, r, http.StatusConflict, pageLogin, authPage{
				Email:   form.Email,
				Message: errorMessage(err),
			})
			return
		}
		if model.KindOf(err) == model.KindValidation {
			page.Message = errorMessage(err)
			h.renderer.Render(w, r, http.StatusUnprocessableEntity, pageRegister, page)
			return
		}
		h.renderer.RenderError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginPage はログインフォームを表示する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, pageLogin, authPage{})
}

// Login はログインを処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := parseLoginForm(r)
	page := authPage{Email: form.Email}

	if errs := form.validate(); len(errs) > 0 {
		page.Errors = errs
		h.renderer.Render(w, r, http.StatusUnprocessableEntity, pageLogin, page)
		return
	}

	session, err := h.service.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if model.KindOf(err) == model.KindAuth {
			page.Message = errorMessage(err)
			h.renderer.Render(w, r, http.StatusUnauthorized, pageLogin, page)
			return
		}
		h.renderer.RenderError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout はセッションを破棄する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
		if err := h.service.Logout(r.Context(), sessionID); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
