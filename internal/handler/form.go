package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/jmk-apps/blog/internal/model"
)

// フォーム値の長さ制限
const (
	maxFieldLength    = 250
	minPasswordLength = 8
	maxPasswordLength = 20
)

// formErrors はフィールド名ごとの入力エラーメッセージ。
type formErrors map[string]string

func (e formErrors) add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// postForm は記事の作成・編集フォームの値。
type postForm struct {
	Title    string
	Subtitle string
	ImgURL   string
	Body     string
}

func parsePostForm(r *http.Request) postForm {
	return postForm{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Subtitle: strings.TrimSpace(r.PostFormValue("subtitle")),
		ImgURL:   strings.TrimSpace(r.PostFormValue("img_url")),
		Body:     r.PostFormValue("body"),
	}
}

func (f postForm) validate() formErrors {
	errs := formErrors{}
	requireLength(errs, "title", "Title", f.Title)
	requireLength(errs, "subtitle", "Subtitle", f.Subtitle)
	requireImageURL(errs, "img_url", f.ImgURL)
	if strings.TrimSpace(f.Body) == "" {
		errs.add("body", "Blog content is required.")
	}
	return errs
}

func (f postForm) input() model.PostInput {
	return model.PostInput{
		Title:    f.Title,
		Subtitle: f.Subtitle,
		Body:     f.Body,
		ImgURL:   f.ImgURL,
	}
}

// postFormFrom は保存済みの記事から編集フォームの初期値を作る。
func postFormFrom(p *model.Post) postForm {
	return postForm{
		Title:    p.Title,
		Subtitle: p.Subtitle,
		ImgURL:   p.ImgURL,
		Body:     p.Body,
	}
}

// registerForm はユーザー登録フォームの値。
type registerForm struct {
	Name     string
	Email    string
	Password string
}

func parseRegisterForm(r *http.Request) registerForm {
	return registerForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
}

func (f registerForm) validate() formErrors {
	errs := formErrors{}
	requireEmail(errs, f.Email)
	n := utf8.RuneCountInString(f.Password)
	if n < minPasswordLength || n > maxPasswordLength {
		errs.add("password", "Password must be between 8 and 20 characters.")
	}
	requireLength(errs, "name", "Name", f.Name)
	return errs
}

// loginForm はログインフォームの値。
type loginForm struct {
	Email    string
	Password string
}

func parseLoginForm(r *http.Request) loginForm {
	return loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
}

func (f loginForm) validate() formErrors {
	errs := formErrors{}
	requireEmail(errs, f.Email)
	if f.Password == "" {
		errs.add("password", "Password is required.")
	}
	return errs
}

func requireLength(errs formErrors, field, label, value string) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		errs.add(field, label+" is required.")
	case n > maxFieldLength:
		errs.add(field, label+" must be at most 250 characters.")
	}
}

func requireEmail(errs formErrors, value string) {
	if value == "" {
		errs.add("email", "Email is required.")
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || utf8.RuneCountInString(value) > maxFieldLength {
		errs.add("email", "Invalid email address.")
	}
}

func requireImageURL(errs formErrors, field, value string) {
	if value == "" {
		errs.add(field, "Blog image URL is required.")
		return
	}
	if utf8.RuneCountInString(value) > maxFieldLength {
		errs.add(field, "Blog image URL must be at most 250 characters.")
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.add(field, "Blog image URL must be a valid http or https URL.")
	}
}

// asAPIError はerrからAPIErrorを取り出す。
func asAPIError(err error) (*model.APIError, bool) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorMessage はフォームに表示するメッセージを返す。
// APIError以外の詳細は利用者に見せない。
func errorMessage(err error) string {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Message
	}
	return "Something went wrong. Please try again later."
}
