package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/lysyi3m/newsflow/app/text"
)

const minHeadlineLength = 10

// DefaultSelectors are the headline hooks tried on pages that do not
// configure their own.
func DefaultSelectors() []string {
	return []string{
		"article h2",
		"article h3",
		".headline",
		".news-title",
		"a[href*='/news/']",
		"a[href*='/article/']",
	}
}

// Scraper extracts headlines from ordinary HTML pages.
type Scraper struct{}

func NewScraper() *Scraper {
	return &Scraper{}
}

// Run walks the source selectors in order and collects every candidate whose
// visible text is at least ten characters long. Links come from the element
// itself, its nearest enclosing anchor or its first descendant anchor, and
// are resolved against the source URL.
func (s *Scraper) Run(data []byte, src Source) ([]RawItem, error) {
	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid page URL %q: %w", ErrParse, src.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML from %s: %w", ErrParse, src.Name, err)
	}

	selectors := src.Selectors
	if len(selectors) == 0 {
		selectors = DefaultSelectors()
	}

	var items []RawItem
	seen := make(map[string]bool)

	for _, selector := range selectors {
		matcher, err := cascadia.Compile(selector)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid selector %q: %w", ErrParse, selector, err)
		}

		doc.FindMatcher(matcher).Each(func(_ int, el *goquery.Selection) {
			title := text.Squash(el.Text())
			if utf8.RuneCountInString(title) < minHeadlineLength {
				return
			}

			link := resolveLink(base, headlineHref(el))
			key := title + "\x00" + link
			if seen[key] {
				return
			}
			seen[key] = true

			items = append(items, RawItem{Title: title, Link: link})
		})
	}

	return items, nil
}

func headlineHref(el *goquery.Selection) string {
	if anchor := el.Closest("a[href]"); anchor.Length() > 0 {
		href, _ := anchor.Attr("href")
		return href
	}
	href, _ := el.Find("a[href]").First().Attr("href")
	return href
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
