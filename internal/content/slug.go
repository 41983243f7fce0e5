package content

import (
	"regexp"
	"strings"
)

var nonWordRun = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_]+`)

// Slugify replaces every run of non-word characters with a single hyphen
// and lowercases the result. Slugify(Slugify(s)) == Slugify(s).
func Slugify(name string) string {
	return strings.ToLower(nonWordRun.ReplaceAllString(name, "-"))
}
