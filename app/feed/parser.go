package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses feed data into entries in feed order. Atom documents, and
// anything that is not recognisably RSS or JSON Feed, go through the tolerant
// Atom reader; RSS and JSON Feed are handled by gofeed.
func (p *Parser) Run(data []byte) ([]Entry, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS, gofeed.FeedTypeJSON:
		return p.runGofeed(data)
	default:
		entries, err := parseAtom(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse feed: %w", err)
		}
		return entries, nil
	}
}

func (p *Parser) runGofeed(data []byte) ([]Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, p.normalizeItem(item))
	}
	return entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Entry {
	link := strings.TrimSpace(item.Link)

	var author string
	if item.Author != nil {
		author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	}

	return Entry{
		ID:        cmp.Or(strings.TrimSpace(item.GUID), link),
		Title:     decodeText(item.Title),
		Link:      link,
		Updated:   strings.TrimSpace(cmp.Or(item.Updated, item.Published)),
		Author:    decodeText(author),
		BodyPlain: bodyPlain(item.Description, item.Content),
		Summary:   item.Description,
		Content:   item.Content,
	}
}
