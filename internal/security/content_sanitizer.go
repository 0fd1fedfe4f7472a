// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は記事本文とコメントのHTMLをサニタイズし、
// XSS攻撃などのセキュリティリスクから読者を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// 記事本文・コメント本文の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 許可タグ以外のタグ・属性は除去し、scriptやstyleは中身ごと除去する。
	// 不正なHTMLもエラーにはせず、許可された部分だけを残す。
	// 同一入力に対して常に同一出力を返し、再適用しても結果は変わらない（冪等）。
	Sanitize(rawHTML string) string
}

// AllowedTags はサニタイズ後に残すことを許可するタグ。
var AllowedTags = []string{
	"a", "h1", "h2", "h3", "strong", "em", "p", "ul", "ol",
	"li", "br", "sub", "sup", "hr", "img",
}

// EmptyTags は属性や内容がなくても残すタグ。
var EmptyTags = []string{"hr", "a", "br", "img"}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: a, h1, h2, h3, strong, em, p, ul, ol, li, br, sub, sup, hr, img
//   - aの属性: href, name, target, title, id, rel
//   - imgの属性: alt, src
//   - 空要素として許可: hr, a, br, img
//   - URL: http, https, mailto と相対URLのみ（javascript: 等は属性ごと除去）
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// script, style, iframe等は許可リストに含めないことで除去される
	p.AllowElements(AllowedTags...)
	p.AllowNoAttrs().OnElements(EmptyTags...)

	p.AllowAttrs("href", "name", "target", "title", "id", "rel").OnElements("a")
	p.AllowAttrs("alt", "src").OnElements("img")

	// 許可リスト内の入力はそのまま通すため、rel="nofollow"等は付与しない
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("mailto", "http", "https")

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
