package post

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Excerpt はサニタイズ済みHTMLからタグを除いたテキストを取り出し、
// maxRunes文字を超える場合は単語境界で切り詰めて"…"を付ける。
// 記事一覧・metaタグ・RSSの説明文に使う。
func Excerpt(htmlBody string, maxRunes int) string {
	text := PlainText(htmlBody)
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// PlainText はHTMLのテキストノードだけを空白区切りで連結する。
// 連続する空白は1つにまとめる。
func PlainText(htmlBody string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlBody))
	var b strings.Builder
	skip := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")

		case html.StartTagToken:
			if isInvisible(tokenizer) {
				skip++
			}
			b.WriteByte(' ')

		case html.EndTagToken:
			if isInvisible(tokenizer) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')

		case html.SelfClosingTagToken:
			b.WriteByte(' ')

		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// isInvisible はテキストを表示しない要素かどうかを返す。
func isInvisible(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
