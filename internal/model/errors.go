// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// 画面に表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
	Field    string // 入力フォームの対象フィールド（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeDuplicateTitle         = "DUPLICATE_TITLE"
	ErrCodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeUnauthenticated        = "UNAUTHENTICATED"
	ErrCodePostNotFound           = "POST_NOT_FOUND"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeUnknownEmail           = "UNKNOWN_EMAIL"
	ErrCodeIncorrectPassword      = "INCORRECT_PASSWORD"
)

// ErrorKind はエラーの分類を表す。
// プレゼンテーション層はこの分類でレスポンスを切り替える。
type ErrorKind int

const (
	// KindInternal は想定外のエラー（ストレージ障害等）。
	KindInternal ErrorKind = iota
	// KindValidation は入力値の形式エラー。
	KindValidation
	// KindConflict は一意制約違反（メールアドレス・タイトルの重複）。
	KindConflict
	// KindForbidden は認可ゲートによる拒否。
	KindForbidden
	// KindNotFound は参照先が存在しない。
	KindNotFound
	// KindAuth はログイン失敗（未登録メールアドレス・パスワード不一致）。
	KindAuth
)

// KindOf はエラーを分類する。APIError以外はKindInternalとなる。
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return KindInternal
	}
	switch apiErr.Code {
	case ErrCodeValidation:
		return KindValidation
	case ErrCodeDuplicateTitle, ErrCodeEmailAlreadyRegistered:
		return KindConflict
	case ErrCodeForbidden, ErrCodeUnauthenticated:
		return KindForbidden
	case ErrCodePostNotFound, ErrCodeUserNotFound:
		return KindNotFound
	case ErrCodeUnknownEmail, ErrCodeIncorrectPassword:
		return KindAuth
	default:
		return KindInternal
	}
}

// HasCode はerrがcodeを持つAPIErrorかどうかを判定する。
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// NewValidationError は入力値エラーを生成する。
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Field:    field,
	}
}

// NewDuplicateTitleError は同名の記事が既に存在する場合のエラーを生成する。
func NewDuplicateTitleError(title string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateTitle,
		Message:  fmt.Sprintf("A post titled %q already exists.", title),
		Category: "content",
		Action:   "別のタイトルを指定してください。",
		Field:    "title",
	}
}

// NewEmailAlreadyRegisteredError は登録済みメールアドレスで再登録しようとした場合のエラーを生成する。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "You've already signed up with that email, log in instead!",
		Category: "auth",
		Action:   "ログイン画面からログインしてください。",
		Field:    "email",
	}
}

// NewForbiddenError は認可ゲートで拒否された場合のエラーを生成する。
func NewForbiddenError(operation string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("You are not allowed to %s.", operation),
		Category: "auth",
		Action:   "権限のあるアカウントでログインしてください。",
	}
}

// NewUnauthenticatedError は匿名ユーザーがログイン必須の操作を行った場合のエラーを生成する。
// Forbiddenの一種として扱い、ログイン画面へ誘導する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "You need to login or register to comment.",
		Category: "auth",
		Action:   "ログインまたはユーザー登録を行ってください。",
	}
}

// NewPostNotFoundError は記事が見つからない場合のエラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", postID),
		Category: "content",
		Action:   "記事IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUnknownEmailError は未登録のメールアドレスでログインしようとした場合のエラーを生成する。
func NewUnknownEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeUnknownEmail,
		Message:  "That email does not exist, please try again.",
		Category: "auth",
		Action:   "メールアドレスを確認するか、ユーザー登録を行ってください。",
		Field:    "email",
	}
}

// NewIncorrectPasswordError はパスワードが一致しない場合のエラーを生成する。
func NewIncorrectPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeIncorrectPassword,
		Message:  "Password incorrect, please try again.",
		Category: "auth",
		Action:   "パスワードを確認してください。",
		Field:    "password",
	}
}
