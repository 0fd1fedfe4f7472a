package post

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"段落", "<p>hello</p><p>world</p>", "hello world"},
		{"インライン要素", "<p>a <strong>bold</strong> move</p>", "a bold move"},
		{"実体参照", "<p>fish &amp; chips</p>", "fish & chips"},
		{"改行と空白", "<p>one<br>two</p>\n\n<p>  three </p>", "one two three"},
		{"scriptは除外", "<p>ok</p><script>alert(1)</script>", "ok"},
		{"空", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	body := "<p>The quick brown fox jumps over the lazy dog.</p>"

	if got := Excerpt(body, 100); got != "The quick brown fox jumps over the lazy dog." {
		t.Errorf("Excerpt(short) = %q", got)
	}
	if got := Excerpt(body, 18); got != "The quick brown…" {
		t.Errorf("Excerpt(18) = %q, want %q", got, "The quick brown…")
	}
	if got := Excerpt(body, 0); got != "The quick brown fox jumps over the lazy dog." {
		t.Errorf("Excerpt(0) = %q, want full text", got)
	}
}
