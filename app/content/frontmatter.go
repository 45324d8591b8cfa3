package content

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// FrontMatter is the fixed metadata header of a generated document.
type FrontMatter struct {
	Title     string `yaml:"title"`
	SourceURL string `yaml:"source_url"`
	SourceID  string `yaml:"source_id"`
	Date      string `yaml:"date"`
	Author    string `yaml:"author"`
}

// Render returns the delimited header followed by the blank separator line.
func (fm FrontMatter) Render() string {
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	writeField(&b, "title", fm.Title)
	writeField(&b, "source_url", fm.SourceURL)
	writeField(&b, "source_id", fm.SourceID)
	writeField(&b, "date", fm.Date)
	writeField(&b, "author", fm.Author)
	b.WriteString(delimiter + "\n\n")
	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s: \"%s\"\n", key, EscapeQuotes(value))
}

var (
	quoteEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	quoteUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)
)

// EscapeQuotes makes s safe inside a YAML double-quoted scalar. Backslashes
// are escaped before quotes.
func EscapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func UnescapeQuotes(s string) string {
	return quoteUnescaper.Replace(s)
}

// headerRegion returns the text between the opening delimiter and the next
// delimiter occurrence. ok is false for documents without a closed header.
func headerRegion(doc string) (string, bool) {
	if !strings.HasPrefix(doc, delimiter) {
		return "", false
	}
	end := strings.Index(doc[len(delimiter):], delimiter)
	if end < 0 {
		return "", false
	}
	return doc[:len(delimiter)+end], true
}

// ParseFrontMatter decodes the header block of a document.
func ParseFrontMatter(doc string) (*FrontMatter, error) {
	header, ok := headerRegion(doc)
	if !ok {
		return nil, fmt.Errorf("document has no front matter block")
	}

	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(header[len(delimiter):]), &fm); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}
	return &fm, nil
}
