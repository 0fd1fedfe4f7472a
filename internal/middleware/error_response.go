package middleware

import (
	"net/http"

	"github.com/jmk-apps/blog/internal/model"
)

// ミドルウェアが返すエラーの利用者向けメッセージ
const (
	MessageInternalError = "Something went wrong. Please try again later."
	MessageRateLimited   = "Too many requests. Please try again later."
	MessageCSRFFailed    = "Your form has expired. Please go back, reload the page and try again."
)

// ErrorWriter はステータスとメッセージからエラーレスポンスを書き込む関数。
// ルーター構築時にHTMLのエラーページを描画する実装を渡す。
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, message string)

// WritePlainError はテキスト形式でエラーレスポンスを書き込む。
// ErrorWriterが未指定の場合に使用する。
func WritePlainError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	http.Error(w, message, status)
}

func errorWriterOrPlain(fn ErrorWriter) ErrorWriter {
	if fn == nil {
		return WritePlainError
	}
	return fn
}

// StatusForError はサービス層のエラー分類に対応するHTTPステータスコードを返す。
func StatusForError(err error) int {
	switch model.KindOf(err) {
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindConflict:
		return http.StatusConflict
	case model.KindAuth:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
