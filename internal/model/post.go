package model

import "time"

// PublishedDateLayout は記事の公開日の表示形式。
const PublishedDateLayout = "January 02, 2006"

// Post はブログ記事を表す。
// Bodyは常にサニタイズ済みのHTMLを保持する。
type Post struct {
	ID          string
	Title       string
	Subtitle    string
	Body        string
	ImgURL      string
	AuthorID    string
	PublishedOn time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublishedDate は表示用の公開日を返す。
func (p *Post) PublishedDate() string {
	return p.PublishedOn.Format(PublishedDateLayout)
}

// PostInput は記事の作成・編集フォームから受け取る値。
// 必須チェックや長さの検証はプレゼンテーション層で済んでいる前提。
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// Comment は記事へのコメントを表す。
// Textは常にサニタイズ済みのHTMLを保持する。
type Comment struct {
	ID        string
	Text      string
	AuthorID  string
	PostID    string
	CreatedAt time.Time
}

// PostSummary は記事一覧に表示する記事と執筆者名の組。
type PostSummary struct {
	Post
	AuthorName string
}

// CommentView はコメントと投稿者情報の組。
type CommentView struct {
	Comment
	AuthorName  string
	AuthorEmail string
}

// PostDetail は記事詳細画面に表示する記事・執筆者・コメント一覧。
type PostDetail struct {
	Post
	AuthorName string
	Comments   []CommentView
}
