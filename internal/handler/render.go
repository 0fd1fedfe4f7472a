package handler

import (
	"bytes"
	"crypto/md5"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmk-apps/blog/internal/authz"
	"github.com/jmk-apps/blog/internal/middleware"
	"github.com/jmk-apps/blog/internal/model"
	"github.com/jmk-apps/blog/internal/post"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページテンプレート名
const (
	pageIndex    = "index.html"
	pagePost     = "post.html"
	pageMakePost = "make-post.html"
	pageRegister = "register.html"
	pageLogin    = "login.html"
	pageAbout    = "about.html"
	pageContact  = "contact.html"
	pageError    = "error.html"
)

var pageNames = []string{
	pageIndex, pagePost, pageMakePost, pageRegister,
	pageLogin, pageAbout, pageContact, pageError,
}

// excerptLength は記事一覧に表示する本文抜粋の最大文字数。
const excerptLength = 160

// pageData は全テンプレートに共通で渡す値。
type pageData struct {
	SiteTitle string
	Identity  model.Identity
	CSRFToken string
	Year      int
	Content   any
}

// Renderer はレイアウトと各ページを組み合わせたテンプレートを保持する。
type Renderer struct {
	siteTitle string
	pages     map[string]*template.Template
}

// NewRenderer は埋め込みテンプレートを解析してRendererを生成する。
func NewRenderer(siteTitle string) (*Renderer, error) {
	funcs := template.FuncMap{
		"gravatar": gravatarURL,
		"date":     func(t time.Time) string { return t.Format(model.PublishedDateLayout) },
		"excerpt":  func(body string) string { return post.Excerpt(body, excerptLength) },
		"safeHTML": trustedHTML,
		"canEdit":  canEdit,
		"canDelete": func(identity model.Identity, authorID string) bool {
			return authz.Authorize(identity, authz.OpDeletePost, authz.OwnedBy(authorID)) == nil
		},
		"canCreate": func(identity model.Identity) bool {
			return authz.AuthorizeRole(identity, authz.OpCreatePost) == nil
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{siteTitle: siteTitle, pages: pages}, nil
}

// Render はページをレイアウトに埋め込んでレスポンスに書き込む。
// 実行エラー時に途中までのHTMLを送らないよう、一度バッファに描画する。
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, content any) {
	tmpl, ok := rd.pages[name]
	if !ok {
		slog.Error("unknown template", slog.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		SiteTitle: rd.siteTitle,
		Identity:  middleware.IdentityFromContext(r.Context()),
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Year:      time.Now().Year(),
		Content:   content,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// errorPage はエラーページの表示内容。
type errorPage struct {
	Status  int
	Title   string
	Message string
}

// RenderError はサービス層のエラーを分類に応じたステータスのエラーページとして描画する。
// 想定外のエラーは詳細をログにのみ記録する。
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status := middleware.StatusForError(err)
	page := errorPage{Status: status, Title: http.StatusText(status)}

	if apiErr, ok := asAPIError(err); ok && status != http.StatusInternalServerError {
		page.Message = apiErr.Message
	} else {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		page.Message = middleware.MessageInternalError
	}

	rd.Render(w, r, status, pageError, page)
}

// RenderStatus は指定ステータスとメッセージでエラーページを描画する。
// middleware.ErrorWriterとしてミドルウェアに渡す。
func (rd *Renderer) RenderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.Render(w, r, status, pageError, errorPage{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	})
}

// RenderNotFound は存在しないパスへのアクセスに404ページを描画する。
func (rd *Renderer) RenderNotFound(w http.ResponseWriter, r *http.Request) {
	rd.Render(w, r, http.StatusNotFound, pageError, errorPage{
		Status:  http.StatusNotFound,
		Title:   http.StatusText(http.StatusNotFound),
		Message: "The page you were looking for does not exist.",
	})
}

// gravatarURL はメールアドレスからGravatar画像のURLを生成する。
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=100&d=retro&r=g"
}

// trustedHTML は保存時にサニタイズ済みのHTMLをエスケープせずに出力する。
// 記事本文とコメント以外には使用しない。
func trustedHTML(s string) template.HTML {
	return template.HTML(s)
}

func canEdit(identity model.Identity, authorID string) bool {
	return authz.Authorize(identity, authz.OpEditPost, authz.OwnedBy(authorID)) == nil
}
