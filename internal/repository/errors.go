package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// リポジトリが返す番兵エラー。
// サービス層はerrors.Isで判定し、ユーザー向けのAPIErrorに変換する。
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrDuplicateTitle   = errors.New("post title already exists")
	ErrReferenceMissing = errors.New("referenced record does not exist")
)

// PostgreSQLのエラーコード
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// 一意制約名（migrationsで定義）
const (
	constraintUsersEmail = "users_email_key"
	constraintPostsTitle = "posts_title_key"
)

// translatePQError はPostgreSQLの制約違反を番兵エラーに変換する。
// 該当しないエラーはそのまま返す。
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case pqUniqueViolation:
		switch pqErr.Constraint {
		case constraintUsersEmail:
			return fmt.Errorf("%w: %w", ErrDuplicateEmail, err)
		case constraintPostsTitle:
			return fmt.Errorf("%w: %w", ErrDuplicateTitle, err)
		}
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %w", ErrReferenceMissing, err)
	}

	return err
}
