// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmk-apps/blog/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	identityContextKey = contextKey("identity")
	sessionContextKey  = contextKey("session_id")
)

// IdentityResolver はセッションIDから主体を解決するインターフェース。
// auth.Serviceが実装する。
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, sessionID string) (model.Identity, error)
}

// NewIdentityMiddleware はHTTP Only CookieのセッションIDから主体を解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieが無い・期限切れのリクエストは匿名として通す。
// ストレージ障害の場合は匿名として扱わず500を返す。
func NewIdentityMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := model.Anonymous()
			sessionID := ""

			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				sessionID = cookie.Value
				resolved, err := resolver.ResolveIdentity(r.Context(), sessionID)
				if err != nil {
					slog.Error("failed to resolve identity",
						slog.String("error", err.Error()),
						slog.String("path", r.URL.Path),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				identity = resolved
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			if sessionID != "" {
				ctx = context.WithValue(ctx, sessionContextKey, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから主体を取得する。
// 注入されていない場合は匿名を返す。
func IdentityFromContext(ctx context.Context) model.Identity {
	if id, ok := ctx.Value(identityContextKey).(model.Identity); ok {
		return id
	}
	return model.Anonymous()
}

// ContextWithIdentity はコンテキストに主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// SessionIDFromContext はリクエストのセッションIDを返す。ログアウトで使用する。
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey).(string)
	return id
}
