package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// writeErrorで500のエラーページを返すミドルウェアを生成する。
// writeErrorがnilの場合はテキストで返す。
func NewRecoveryMiddleware(writeError ErrorWriter) func(next http.Handler) http.Handler {
	writeError = errorWriterOrPlain(writeError)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("user_id", IdentityFromContext(r.Context()).UserID),
						slog.String("stack", string(debug.Stack())),
					)
					writeError(w, r, http.StatusInternalServerError, MessageInternalError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
