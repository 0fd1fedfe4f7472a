package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jmk-apps/blog/internal/middleware"
	"github.com/jmk-apps/blog/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, email, password, name string) (*model.Session, error)
	loginFn    func(ctx context.Context, email, password string) (*model.Session, error)
	logoutFn   func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*model.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, password, name)
	}
	return &model.Session{ID: "session-new"}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &model.Session{ID: "session-login"}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockPostService struct {
	listPostsFn   func(ctx context.Context) ([]*model.PostSummary, error)
	getPostFn     func(ctx context.Context, postID string) (*model.PostDetail, error)
	postForEditFn func(ctx context.Context, identity model.Identity, postID string) (*model.Post, error)
	createPostFn  func(ctx context.Context, identity model.Identity, input model.PostInput) (*model.Post, error)
	updatePostFn  func(ctx context.Context, identity model.Identity, postID string, input model.PostInput) (*model.Post, error)
	deletePostFn  func(ctx context.Context, identity model.Identity, postID string) error
}

func (m *mockPostService) ListPosts(ctx context.Context) ([]*model.PostSummary, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx)
	}
	return nil, nil
}

func (m *mockPostService) GetPost(ctx context.Context, postID string) (*model.PostDetail, error) {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, postID)
	}
	return nil, model.NewPostNotFoundError(postID)
}

func (m *mockPostService) PostForEdit(ctx context.Context, identity model.Identity, postID string) (*model.Post, error) {
	if m.postForEditFn != nil {
		return m.postForEditFn(ctx, identity, postID)
	}
	return nil, model.NewPostNotFoundError(postID)
}

func (m *mockPostService) CreatePost(ctx context.Context, identity model.Identity, input model.PostInput) (*model.Post, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, identity, input)
	}
	return &model.Post{ID: "post-new", Title: input.Title}, nil
}

func (m *mockPostService) UpdatePost(ctx context.Context, identity model.Identity, postID string, input model.PostInput) (*model.Post, error) {
	if m.updatePostFn != nil {
		return m.updatePostFn(ctx, identity, postID, input)
	}
	return &model.Post{ID: postID, Title: input.Title}, nil
}

func (m *mockPostService) DeletePost(ctx context.Context, identity model.Identity, postID string) error {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, identity, postID)
	}
	return nil
}

type mockCommentService struct {
	createCommentFn func(ctx context.Context, identity model.Identity, postID, text string) (*model.Comment, error)
}

func (m *mockCommentService) CreateComment(ctx context.Context, identity model.Identity, postID, text string) (*model.Comment, error) {
	if m.createCommentFn != nil {
		return m.createCommentFn(ctx, identity, postID, text)
	}
	return &model.Comment{ID: "comment-1", PostID: postID, AuthorID: identity.UserID, Text: text}, nil
}

// mockIdentityResolver はセッションIDと主体の対応表で解決するモック。
type mockIdentityResolver struct {
	identities map[string]model.Identity
}

func (m *mockIdentityResolver) ResolveIdentity(_ context.Context, sessionID string) (model.Identity, error) {
	if id, ok := m.identities[sessionID]; ok {
		return id, nil
	}
	return model.Anonymous(), nil
}

// --- 共通フィクスチャ ---

const testCSRFToken = "test-csrf-token"

var (
	adminIdentity  = model.Identity{UserID: "user-admin", Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	authorIdentity = model.Identity{UserID: "user-author", Name: "Author", Email: "author@example.com", Role: model.RoleAuthor}
	readerIdentity = model.Identity{UserID: "user-reader", Name: "Reader", Email: "reader@example.com", Role: model.RoleReader}
)

// testRouterDeps はモックを組み込んだRouterDepsを返す。
type testRouterDeps struct {
	auth     *mockAuthService
	posts    *mockPostService
	comments *mockCommentService
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer("Test Blog")
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return renderer
}

func newTestRouter(t *testing.T, mocks testRouterDeps) http.Handler {
	t.Helper()
	if mocks.auth == nil {
		mocks.auth = &mockAuthService{}
	}
	if mocks.posts == nil {
		mocks.posts = &mockPostService{}
	}
	if mocks.comments == nil {
		mocks.comments = &mockCommentService{}
	}

	return NewRouter(&RouterDeps{
		IdentityResolver: &mockIdentityResolver{identities: map[string]model.Identity{
			"session-admin":  adminIdentity,
			"session-author": authorIdentity,
			"session-reader": readerIdentity,
		}},
		Renderer:       newTestRenderer(t),
		AuthService:    mocks.auth,
		AuthConfig:     AuthHandlerConfig{SessionMaxAge: 3600},
		PostService:    mocks.posts,
		CommentService: mocks.comments,
		FeedConfig:     FeedHandlerConfig{BaseURL: "https://blog.example.com", SiteTitle: "Test Blog"},
	})
}

// formRequest はCSRFトークン付きのフォーム送信リクエストを生成する。
// sessionIDが空の場合は匿名のリクエストとなる。
func formRequest(target, sessionID string, values url.Values) *http.Request {
	if values == nil {
		values = url.Values{}
	}
	values.Set(middleware.CSRFFormField, testCSRFToken)

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sessionID})
	}
	return req
}

// getRequest はGETリクエストを生成する。
func getRequest(target, sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sessionID})
	}
	return req
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func samplePostDetail(id, authorID string) *model.PostDetail {
	published := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	return &model.PostDetail{
		Post: model.Post{
			ID:          id,
			Title:       "Hello World",
			Subtitle:    "First post",
			Body:        "<p>Welcome to the <strong>blog</strong>.</p>",
			ImgURL:      "https://images.example.com/hello.jpg",
			AuthorID:    authorID,
			PublishedOn: published,
			CreatedAt:   published,
		},
		AuthorName: "Author",
		Comments: []model.CommentView{
			{
				Comment:     model.Comment{ID: "c-1", Text: "<p>Nice post</p>", AuthorID: "user-reader", PostID: id},
				AuthorName:  "Reader",
				AuthorEmail: "Reader@Example.com",
			},
		},
	}
}
