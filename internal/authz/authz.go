// Package authz は主体・操作・対象リソースから操作可否を判定する認可ゲートを提供する。
// 判定は副作用を持たない純粋関数で、すべての変更操作の前に評価する。
package authz

import (
	"github.com/jmk-apps/blog/internal/model"
)

// Operation は認可対象の操作を表す。
type Operation int

const (
	// OpReadPost は記事一覧・記事詳細の閲覧。
	OpReadPost Operation = iota
	// OpCreateComment はコメントの投稿。
	OpCreateComment
	// OpCreatePost は記事の作成。
	OpCreatePost
	// OpEditPost は記事の編集。
	OpEditPost
	// OpDeletePost は記事の削除。
	OpDeletePost
)

// String はエラーメッセージに埋め込む操作名を返す。
func (op Operation) String() string {
	switch op {
	case OpReadPost:
		return "read posts"
	case OpCreateComment:
		return "comment"
	case OpCreatePost:
		return "create posts"
	case OpEditPost:
		return "edit this post"
	case OpDeletePost:
		return "delete this post"
	default:
		return "perform this operation"
	}
}

// Resource は判定対象のリソースを表す。
// OwnerIDが空の場合は所有者を持たない（または未ロードの）リソースとして扱う。
type Resource struct {
	OwnerID string
}

// NoResource は対象リソースを持たない操作で使う。
var NoResource = Resource{}

// OwnedBy は所有者を持つリソースを返す。
func OwnedBy(ownerID string) Resource {
	return Resource{OwnerID: ownerID}
}

// Authorize は主体が操作を行えるかを判定する。
// 許可する場合はnil、拒否する場合はForbidden分類の*model.APIErrorを返す。
//
//	| 操作             | anonymous | reader | author   | admin |
//	| 閲覧             | ○         | ○      | ○        | ○     |
//	| コメント投稿     | ×         | ○      | ○        | ○     |
//	| 記事作成         | ×         | ×      | ○        | ○     |
//	| 記事編集・削除   | ×         | ×      | 自分のみ | ○     |
func Authorize(id model.Identity, op Operation, res Resource) error {
	if err := AuthorizeRole(id, op); err != nil {
		return err
	}

	switch op {
	case OpEditPost, OpDeletePost:
		if id.IsAdmin() {
			return nil
		}
		if res.OwnerID == "" || res.OwnerID != id.UserID {
			return model.NewForbiddenError(op.String())
		}
	}
	return nil
}

// AuthorizeRole はロールのみで判定できる部分を評価する。
// 記事の変更操作では、記事をロードする前にこれで匿名・readerを拒否し、
// ロード後にAuthorizeで所有者を確認する。
func AuthorizeRole(id model.Identity, op Operation) error {
	switch op {
	case OpReadPost:
		return nil
	case OpCreateComment:
		if id.IsAnonymous() {
			return model.NewUnauthenticatedError()
		}
		return nil
	case OpCreatePost, OpEditPost, OpDeletePost:
		if canAuthor(id) {
			return nil
		}
		return model.NewForbiddenError(op.String())
	default:
		return model.NewForbiddenError(op.String())
	}
}

// canAuthor は記事を執筆できるロールかどうかを返す。
func canAuthor(id model.Identity) bool {
	if id.IsAnonymous() {
		return false
	}
	return id.Role == model.RoleAdmin || id.Role == model.RoleAuthor
}
