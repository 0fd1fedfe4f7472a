package post

import (
	"context"
	"sort"
	"sync"

	"github.com/jmk-apps/blog/internal/model"
	"github.com/jmk-apps/blog/internal/repository"
)

// memStore はテスト用のインメモリ実装。
// PostgreSQLの制約（一意制約・外部キー・CASCADE削除・最初のアカウントのadmin化）を再現する。
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	sessions map[string]*model.Session
	posts    map[string]*model.Post
	comments map[string]*model.Comment
	seq      int
	order    map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*model.User{},
		sessions: map[string]*model.Session{},
		posts:    map[string]*model.Post{},
		comments: map[string]*model.Comment{},
		order:    map[string]int{},
	}
}

func (s *memStore) next(id string) {
	s.seq++
	s.order[id] = s.seq
}

// --- users ---

type memUsers struct{ *memStore }

func (r memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if len(r.users) == 0 {
		user.Role = model.RoleAdmin
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r memUsers) UpdateRole(_ context.Context, email string, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- sessions ---

type memSessions struct{ *memStore }

func (r memSessions) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r memSessions) FindByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r memSessions) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// --- posts ---

type memPosts struct{ *memStore }

func (r memPosts) List(_ context.Context) ([]*model.PostSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PostSummary
	for _, p := range r.posts {
		s := &model.PostSummary{Post: *p}
		if u, ok := r.users[p.AuthorID]; ok {
			s.AuthorName = u.Name
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r memPosts) FindByID(_ context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r memPosts) Create(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[post.AuthorID]; !ok {
		return repository.ErrReferenceMissing
	}
	for _, p := range r.posts {
		if p.Title == post.Title {
			return repository.ErrDuplicateTitle
		}
	}
	cp := *post
	r.posts[post.ID] = &cp
	r.next(post.ID)
	return nil
}

func (r memPosts) Update(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.posts {
		if p.ID != post.ID && p.Title == post.Title {
			return repository.ErrDuplicateTitle
		}
	}
	stored.Title = post.Title
	stored.Subtitle = post.Subtitle
	stored.Body = post.Body
	stored.ImgURL = post.ImgURL
	stored.UpdatedAt = post.UpdatedAt
	return nil
}

func (r memPosts) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return 0, repository.ErrNotFound
	}
	var removed int64
	for cid, c := range r.comments {
		if c.PostID == id {
			delete(r.comments, cid)
			removed++
		}
	}
	delete(r.posts, id)
	return removed, nil
}

// --- comments ---

type memComments struct{ *memStore }

func (r memComments) Create(_ context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[c.PostID]; !ok {
		return repository.ErrReferenceMissing
	}
	if _, ok := r.users[c.AuthorID]; !ok {
		return repository.ErrReferenceMissing
	}
	cp := *c
	r.comments[c.ID] = &cp
	r.next(c.ID)
	return nil
}

func (r memComments) ListByPostID(_ context.Context, postID string) ([]model.CommentView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CommentView
	for _, c := range r.comments {
		if c.PostID != postID {
			continue
		}
		v := model.CommentView{Comment: *c}
		if u, ok := r.users[c.AuthorID]; ok {
			v.AuthorName = u.Name
			v.AuthorEmail = u.Email
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (s *memStore) commentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

var (
	_ repository.UserRepository    = memUsers{}
	_ repository.SessionRepository = memSessions{}
	_ repository.PostRepository    = memPosts{}
	_ repository.CommentRepository = memComments{}
)
