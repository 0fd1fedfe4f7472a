package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmk-apps/blog/internal/authz"
	"github.com/jmk-apps/blog/internal/middleware"
	"github.com/jmk-apps/blog/internal/model"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	ListPosts(ctx context.Context) ([]*model.PostSummary, error)
	GetPost(ctx context.Context, postID string) (*model.PostDetail, error)
	PostForEdit(ctx context.Context, identity model.Identity, postID string) (*model.Post, error)
	CreatePost(ctx context.Context, identity model.Identity, input model.PostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, identity model.Identity, postID string, input model.PostInput) (*model.Post, error)
	DeletePost(ctx context.Context, identity model.Identity, postID string) error
}

// CommentServiceInterface はコメント投稿に必要なサービスインターフェース。
type CommentServiceInterface interface {
	CreateComment(ctx context.Context, identity model.Identity, postID, text string) (*model.Comment, error)
}

// PostHandler は記事の閲覧・作成・編集・削除とコメント投稿のHTTPハンドラー。
type PostHandler struct {
	posts    PostServiceInterface
	comments CommentServiceInterface
	renderer *Renderer
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(posts PostServiceInterface, comments CommentServiceInterface, renderer *Renderer) *PostHandler {
	return &PostHandler{
		posts:    posts,
		comments: comments,
		renderer: renderer,
	}
}

// indexPage は記事一覧の表示内容。
type indexPage struct {
	Posts []*model.PostSummary
}

// postPage は記事詳細とコメントフォームの表示内容。
type postPage struct {
	Post         *model.PostDetail
	CommentText  string
	CommentError string
}

// makePostPage は記事の作成・編集フォームの表示内容。
// Editがtrueの場合は編集モードで表示する。
type makePostPage struct {
	Edit    bool
	PostID  string
	Form    postForm
	Errors  formErrors
	Message string
}

// Index は全記事を一覧表示する。
// GET /
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts(r.Context())
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, pageIndex, indexPage{Posts: posts})
}

// Show は記事とコメント一覧を表示する。
// GET /post/{id}
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	detail, err := h.posts.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, pagePost, postPage{Post: detail})
}

// Comment は記事へのコメントを投稿する。
// 未ログインの場合はログイン画面にメッセージ付きで誘導する。
// POST /post/{id}
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	identity := middleware.IdentityFromContext(r.Context())
	text := r.PostFormValue("comment_text")

	if !identity.IsAnonymous() && strings.TrimSpace(text) == "" {
		h.renderCommentError(w, r, postID, text, model.NewValidationError("comment_text", "Comment is required."))
		return
	}

	if _, err := h.comments.CreateComment(r.Context(), identity, postID, text); err != nil {
		switch {
		case model.HasCode(err, model.ErrCodeUnauthenticated):
			h.renderer.Render(w, r, http.StatusForbidden, pageLogin, authPage{Message: errorMessage(err)})
		case model.KindOf(err) == model.KindValidation:
			h.renderCommentError(w, r, postID, text, err)
		default:
			h.renderer.RenderError(w, r, err)
		}
		return
	}

	http.Redirect(w, r, "/post/"+postID, http.StatusSeeOther)
}

func (h *PostHandler) renderCommentError(w http.ResponseWriter, r *http.Request, postID, text string, cause error) {
	detail, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusUnprocessableEntity, pagePost, postPage{
		Post:         detail,
		CommentText:  text,
		CommentError: errorMessage(cause),
	})
}

// NewPostPage は記事作成フォームを表示する。
// GET /new-post
func (h *PostHandler) NewPostPage(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if err := authz.AuthorizeRole(identity, authz.OpCreatePost); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, pageMakePost, makePostPage{})
}

// CreatePost は記事を作成する。
// POST /new-post
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	form := parsePostForm(r)

	// 入力エラーより先に権限を確認し、権限の無い主体にフォームを返さない
	if err := authz.AuthorizeRole(identity, authz.OpCreatePost); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	page := makePostPage{Form: form}
	if errs := form.validate(); len(errs) > 0 {
		page.Errors = errs
		h.renderer.Render(w, r, http.StatusUnprocessableEntity, pageMakePost, page)
		return
	}

	if _, err := h.posts.CreatePost(r.Context(), identity, form.input()); err != nil {
		h.renderFormError(w, r, page, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EditPostPage は保存済みの値を初期値にした編集フォームを表示する。
// GET /edit-post/{id}
func (h *PostHandler) EditPostPage(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	postID := chi.URLParam(r, "id")

	p, err := h.posts.PostForEdit(r.Context(), identity, postID)
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, pageMakePost, makePostPage{
		Edit:   true,
		PostID: p.ID,
		Form:   postFormFrom(p),
	})
}

// UpdatePost は記事を編集する。
// POST /edit-post/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	postID := chi.URLParam(r, "id")
	form := parsePostForm(r)

	if err := authz.AuthorizeRole(identity, authz.OpEditPost); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	page := makePostPage{Edit: true, PostID: postID, Form: form}
	if errs := form.validate(); len(errs) > 0 {
		page.Errors = errs
		h.renderer.Render(w, r, http.StatusUnprocessableEntity, pageMakePost, page)
		return
	}

	p, err := h.posts.UpdatePost(r.Context(), identity, postID, form.input())
	if err != nil {
		h.renderFormError(w, r, page, err)
		return
	}

	http.Redirect(w, r, "/post/"+p.ID, http.StatusSeeOther)
}

// DeletePost は記事とそのコメントを削除する。
// POST /delete/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	if err := h.posts.DeletePost(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderFormError は入力値起因のエラーをフォームに、それ以外をエラーページに描画する。
func (h *PostHandler) renderFormError(w http.ResponseWriter, r *http.Request, page makePostPage, err error) {
	switch model.KindOf(err) {
	case model.KindValidation, model.KindConflict:
		page.Message = errorMessage(err)
		if apiErr, ok := asAPIError(err); ok && apiErr.Field != "" {
			page.Errors = formErrors{apiErr.Field: apiErr.Message}
		}
		h.renderer.Render(w, r, middleware.StatusForError(err), pageMakePost, page)
	default:
		h.renderer.RenderError(w, r, err)
	}
}
