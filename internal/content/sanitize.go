package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// inlineTags is the allow-list shared by comments and posts.
var inlineTags = []string{
	"a", "abbr", "acronym", "b", "blockquote", "code",
	"em", "i", "li", "ol", "strong", "ul",
}

// Sanitizer strips everything outside an allow-list of tags. Script and
// style elements are removed together with their content.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func basePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(inlineTags...)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("title").OnElements("abbr", "acronym")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	return p
}

// NewPostSanitizer allows the shared inline tags plus paragraphs.
func NewPostSanitizer() *Sanitizer {
	p := basePolicy()
	p.AllowElements("p")
	return &Sanitizer{policy: p}
}

// NewCommentSanitizer allows the shared inline tags plus the block
// elements produced by Markdown rendering.
func NewCommentSanitizer() *Sanitizer {
	p := basePolicy()
	p.AllowElements("s", "pre", "p")
	return &Sanitizer{policy: p}
}

// Sanitize returns the cleaned HTML.
func (s *Sanitizer) Sanitize(raw string) string {
	if s == nil || s.policy == nil {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

var (
	postSanitizer    = NewPostSanitizer()
	commentSanitizer = NewCommentSanitizer()
)

// SanitizePost cleans rich text submitted as post content.
func SanitizePost(raw string) string {
	return postSanitizer.Sanitize(raw)
}
