package tracker

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRE    = regexp.MustCompile(`<[^>]*>`)
	urlRE        = regexp.MustCompile(`https?://\S+`)
	mdCodeFence  = regexp.MustCompile("```[\\s\\S]*?```")
	mdInlineCode = regexp.MustCompile("`[^`]*`")
)

// CleanText normalizes raw tracker markup into plain token text: code blocks
// and HTML tags are dropped, escaped entities are decoded, URLs removed, and
// whitespace collapsed to single spaces. Cleaning an empty or nil body
// yields the empty string.
func CleanText(s string) string {
	s = mdCodeFence.ReplaceAllString(s, " ")
	s = mdInlineCode.ReplaceAllString(s, " ")
	s = htmlTagRE.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = urlRE.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
