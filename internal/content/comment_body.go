package content

import "strings"

// CommentBody pairs the raw text of a comment with its rendered HTML.
// The zero value is an empty comment. Use NewCommentBody to build one;
// HTML is never set on its own.
type CommentBody struct {
	raw  string
	html string
}

// NewCommentBody renders raw as Markdown and sanitizes the result.
func NewCommentBody(raw string) (CommentBody, error) {
	rendered, err := RenderMarkdown(raw)
	if err != nil {
		return CommentBody{}, err
	}
	return CommentBody{raw: raw, html: commentSanitizer.Sanitize(rendered)}, nil
}

func (b CommentBody) Raw() string  { return b.raw }
func (b CommentBody) HTML() string { return b.html }

// IsEmpty reports whether the comment has no visible text.
func (b CommentBody) IsEmpty() bool {
	return strings.TrimSpace(b.raw) == ""
}
