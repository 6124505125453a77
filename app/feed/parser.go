package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Parser turns fetched content into items, in document order.
type Parser interface {
	Run(data []byte, src Source) ([]RawItem, error)
}

var (
	_ Parser = (*SyndicationParser)(nil)
	_ Parser = (*Scraper)(nil)
)

// ParserFor returns the parser matching the source type.
func ParserFor(src Source) Parser {
	if src.Type == SourceTypeHTML {
		return NewScraper()
	}
	return NewSyndicationParser()
}

// SyndicationParser handles RSS, Atom and JSON Feed documents.
type SyndicationParser struct {
	now func() time.Time
}

func NewSyndicationParser() *SyndicationParser {
	return &SyndicationParser{now: time.Now}
}

func (p *SyndicationParser) Run(data []byte, src Source) ([]RawItem, error) {
	// gofeed.Parser keeps per-document state, so each call gets its own.
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed from %s: %w", ErrParse, src.Name, err)
	}

	processedAt := p.now().UTC().Format(time.RFC3339)

	items := make([]RawItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}
		items = append(items, p.normalizeItem(item, processedAt))
	}

	return items, nil
}

func (p *SyndicationParser) normalizeItem(item *gofeed.Item, processedAt string) RawItem {
	return RawItem{
		Title:       item.Title,
		Link:        strings.TrimSpace(item.Link),
		Description: cmp.Or(item.Description, item.Content),
		Published:   p.publishedDate(item, processedAt),
	}
}

// publishedDate prefers the parsed publish date, then the parsed update date.
// A date the feed supplied but that could not be parsed is passed through
// verbatim; a missing date becomes the processing time.
func (p *SyndicationParser) publishedDate(item *gofeed.Item, processedAt string) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return cmp.Or(strings.TrimSpace(item.Published), strings.TrimSpace(item.Updated), processedAt)
}
