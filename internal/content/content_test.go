package content

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "punctuation", input: "C++ Tips!", expected: "c-tips-"},
		{name: "spaces", input: "Go  Concurrency", expected: "go-concurrency"},
		{name: "underscore kept", input: "snake_case", expected: "snake_case"},
		{name: "leading run", input: "  hello", expected: "-hello"},
		{name: "unicode letters", input: "Café Crème", expected: "café-crème"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.input)
			if got != tt.expected {
				t.Fatalf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if again := Slugify(got); again != got {
				t.Fatalf("Slugify not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNewCommentBodyStripsScript(t *testing.T) {
	body, err := NewCommentBody("**bold** <script>alert(1)</script>")
	if err != nil {
		t.Fatalf("NewCommentBody: %v", err)
	}
	html := body.HTML()
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Fatalf("expected rendered bold, got %q", html)
	}
	if strings.Contains(html, "<script") || strings.Contains(html, "alert(1)") {
		t.Fatalf("script leaked into %q", html)
	}
	if body.Raw() != "**bold** <script>alert(1)</script>" {
		t.Fatalf("raw body changed: %q", body.Raw())
	}
}

func TestNewCommentBodyLinkifiesURLs(t *testing.T) {
	body, err := NewCommentBody("see https://go.dev for details")
	if err != nil {
		t.Fatalf("NewCommentBody: %v", err)
	}
	if !strings.Contains(body.HTML(), `href="https://go.dev"`) {
		t.Fatalf("expected autolink, got %q", body.HTML())
	}
	if !strings.Contains(body.HTML(), `rel="nofollow"`) {
		t.Fatalf("expected nofollow, got %q", body.HTML())
	}
}

func TestNewCommentBodyDropsDisallowedMarkup(t *testing.T) {
	body, err := NewCommentBody("# Heading\n\ntext <img src=\"x.png\"> and <s>old</s>")
	if err != nil {
		t.Fatalf("NewCommentBody: %v", err)
	}
	html := body.HTML()
	for _, banned := range []string{"<h1", "<img", "x.png"} {
		if strings.Contains(html, banned) {
			t.Fatalf("%q should be stripped from %q", banned, html)
		}
	}
	if !strings.Contains(html, "Heading") {
		t.Fatalf("text of stripped tag should remain, got %q", html)
	}
	if !strings.Contains(html, "<s>old</s>") {
		t.Fatalf("expected <s> to survive, got %q", html)
	}
}

func TestCommentBodyIsEmpty(t *testing.T) {
	var zero CommentBody
	if !zero.IsEmpty() {
		t.Fatal("zero value should be empty")
	}
	body, _ := NewCommentBody("   ")
	if !body.IsEmpty() {
		t.Fatal("whitespace body should be empty")
	}
}

func TestSanitizePost(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:    "paragraph kept",
			input:   "<p>Hello <b>world</b></p>",
			want:    []string{"<p>Hello <b>world</b></p>"},
		},
		{
			name:    "script removed",
			input:   `<p>hi</p><script>steal()</script>`,
			want:    []string{"<p>hi</p>"},
			notWant: []string{"script", "steal"},
		},
		{
			name:    "event handler removed",
			input:   `<a href="https://example.com" onclick="x()">link</a>`,
			want:    []string{`href="https://example.com"`},
			notWant: []string{"onclick"},
		},
		{
			name:    "javascript url removed",
			input:   `<a href="javascript:alert(1)">x</a>`,
			notWant: []string{"javascript:"},
		},
		{
			name:    "pre not allowed in posts",
			input:   `<pre>code</pre>`,
			want:    []string{"code"},
			notWant: []string{"<pre>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePost(tt.input)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("expected %q in %q", w, got)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("did not expect %q in %q", nw, got)
				}
			}
		})
	}
}
