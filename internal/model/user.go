// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleAdmin は全記事の作成・編集・削除が可能な管理者。
	RoleAdmin Role = "admin"
	// RoleAuthor は記事の作成と自分の記事の編集・削除が可能な執筆者。
	RoleAuthor Role = "author"
	// RoleReader はコメントのみ可能な一般ユーザー。
	RoleReader Role = "reader"
)

// ParseRole は文字列をRoleに変換する。
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleAuthor, RoleReader:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// User はブログのアカウントを表す。
// PasswordHashはソルト付きハッシュのみを保持し、平文は保持しない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
