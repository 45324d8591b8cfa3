package feed

import (
	"html"
	"regexp"
	"strings"
)

// MaxBodyRunes bounds the body handed to the generation service.
const MaxBodyRunes = 12000

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// PlainText replaces every tag with a space, collapses whitespace runs and
// truncates the result to MaxBodyRunes characters.
func PlainText(body string) string {
	stripped := tagPattern.ReplaceAllString(body, " ")
	collapsed := strings.Join(strings.Fields(stripped), " ")
	return truncateRunes(collapsed, MaxBodyRunes)
}

// bodyPlain prefers the summary over the content.
func bodyPlain(summary, content string) string {
	if summary != "" {
		return PlainText(summary)
	}
	return PlainText(content)
}

func decodeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}

func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
