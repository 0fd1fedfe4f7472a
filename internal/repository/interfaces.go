// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/jmk-apps/blog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// usersテーブルが空の場合（最初のアカウント）はuser.Roleに関わらずadminとして作成し、
	// 実際に保存されたロールをuser.Roleに反映する。
	// メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateRole は指定メールアドレスのユーザーのロールを変更する。
	// 見つからない場合はErrNotFoundを返す。
	UpdateRole(ctx context.Context, email string, role model.Role) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// List は全記事を作成順（created_at, id）で執筆者名付きで返す。
	List(ctx context.Context) ([]*model.PostSummary, error)

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// Create は記事を作成する。タイトルが重複する場合はErrDuplicateTitleを返す。
	Create(ctx context.Context, post *model.Post) error

	// Update はtitle、subtitle、body、img_url、updated_atを上書きする。
	// author_idとpublished_onは変更しない。
	// 見つからない場合はErrNotFound、タイトルが重複する場合はErrDuplicateTitleを返す。
	Update(ctx context.Context, post *model.Post) error

	// Delete は記事を削除し、CASCADE削除されたコメント数を返す。
	// 見つからない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) (int64, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	// 記事または投稿者が存在しない場合はErrReferenceMissingを返す。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByPostID は記事のコメントを作成順で投稿者情報付きで返す。
	ListByPostID(ctx context.Context, postID string) ([]model.CommentView, error)
}
