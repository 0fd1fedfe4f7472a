package authz

import (
	"testing"

	"github.com/jmk-apps/blog/internal/model"
)

var (
	anonymous = model.Anonymous()
	reader    = model.Identity{UserID: "u-reader", Name: "Reader", Role: model.RoleReader}
	author    = model.Identity{UserID: "u-author", Name: "Author", Role: model.RoleAuthor}
	admin     = model.Identity{UserID: "u-admin", Name: "Admin", Role: model.RoleAdmin}
)

func TestAuthorize_PolicyTable(t *testing.T) {
	own := OwnedBy(author.UserID)
	others := OwnedBy("u-someone-else")

	tests := []struct {
		name  string
		id    model.Identity
		op    Operation
		res   Resource
		allow bool
	}{
		{"匿名は閲覧可", anonymous, OpReadPost, NoResource, true},
		{"readerは閲覧可", reader, OpReadPost, NoResource, true},

		{"匿名はコメント不可", anonymous, OpCreateComment, NoResource, false},
		{"readerはコメント可", reader, OpCreateComment, NoResource, true},
		{"authorはコメント可", author, OpCreateComment, NoResource, true},
		{"adminはコメント可", admin, OpCreateComment, NoResource, true},

		{"匿名は記事作成不可", anonymous, OpCreatePost, NoResource, false},
		{"readerは記事作成不可", reader, OpCreatePost, NoResource, false},
		{"authorは記事作成可", author, OpCreatePost, NoResource, true},
		{"adminは記事作成可", admin, OpCreatePost, NoResource, true},

		{"匿名は編集不可", anonymous, OpEditPost, others, false},
		{"readerは編集不可", reader, OpEditPost, OwnedBy(reader.UserID), false},
		{"authorは自分の記事を編集可", author, OpEditPost, own, true},
		{"authorは他人の記事を編集不可", author, OpEditPost, others, false},
		{"adminは他人の記事を編集可", admin, OpEditPost, others, true},

		{"匿名は削除不可", anonymous, OpDeletePost, others, false},
		{"readerは削除不可", reader, OpDeletePost, others, false},
		{"authorは自分の記事を削除可", author, OpDeletePost, own, true},
		{"authorは他人の記事を削除不可", author, OpDeletePost, others, false},
		{"adminは他人の記事を削除可", admin, OpDeletePost, others, true},

		{"所有者不明の記事はauthorでも編集不可", author, OpEditPost, NoResource, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, tt.op, tt.res)
			if tt.allow && err != nil {
				t.Errorf("Authorize() = %v, want nil", err)
			}
			if !tt.allow {
				if err == nil {
					t.Fatal("Authorize() = nil, want forbidden")
				}
				if model.KindOf(err) != model.KindForbidden {
					t.Errorf("KindOf() = %v, want KindForbidden", model.KindOf(err))
				}
			}
		})
	}
}

func TestAuthorize_AnonymousCommentIsUnauthenticated(t *testing.T) {
	err := Authorize(anonymous, OpCreateComment, NoResource)
	if !model.HasCode(err, model.ErrCodeUnauthenticated) {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeUnauthenticated)
	}
}

func TestAuthorize_ForbiddenMessageNamesOperation(t *testing.T) {
	err := Authorize(reader, OpDeletePost, OwnedBy("x"))
	if !model.HasCode(err, model.ErrCodeForbidden) {
		t.Fatalf("error = %v, want code %s", err, model.ErrCodeForbidden)
	}
	want := "You are not allowed to delete this post."
	if got := err.(*model.APIError).Message; got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
}

// ロールのみの判定では所有者を問わない
func TestAuthorizeRole_IgnoresOwnership(t *testing.T) {
	if err := AuthorizeRole(author, OpEditPost); err != nil {
		t.Errorf("AuthorizeRole(author, edit) = %v, want nil", err)
	}
	if err := AuthorizeRole(reader, OpEditPost); err == nil {
		t.Error("AuthorizeRole(reader, edit) = nil, want forbidden")
	}
}

// adminロールでもUserIDが空なら匿名として扱う
func TestAuthorize_RoleWithoutUserIsAnonymous(t *testing.T) {
	forged := model.Identity{Role: model.RoleAdmin}
	if err := Authorize(forged, OpDeletePost, OwnedBy("x")); err == nil {
		t.Error("Authorize() = nil, want forbidden for identity without user id")
	}
}
