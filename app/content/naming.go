package content

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lysyi3m/feed-rewriter/app/feed"
)

const (
	maxSlugRunes = 60
	fallbackSlug = "article"
)

var datePrefixPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}`)

func Slug(title string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) || r == '-' {
			return r
		}
		return -1
	}, strings.ToLower(title))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range kept {
		if unicode.IsSpace(r) || r == '-' {
			pendingHyphen = true
			continue
		}
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteRune(r)
	}

	slug := []rune(b.String())
	if len(slug) > maxSlugRunes {
		slug = slug[:maxSlugRunes]
	}
	if len(slug) == 0 {
		return fallbackSlug
	}
	return string(slug)
}

// DatePrefix returns the leading YYYY-MM-DD of a timestamp, or "".
func DatePrefix(updated string) string {
	return datePrefixPattern.FindString(updated)
}

func Filename(entry feed.Entry) string {
	slug := Slug(entry.Title)
	if prefix := DatePrefix(entry.Updated); prefix != "" {
		return prefix + "-" + slug + ".md"
	}
	return slug + ".md"
}
