package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run returns the readable text of an article page. pageURL is used to
// resolve relative references inside the document and may be empty.
func (e *ContentExtractor) Run(data []byte, pageURL string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: HTML data is empty", ErrParse)
	}

	var base *url.URL
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return "", fmt.Errorf("%w: invalid page URL %q: %w", ErrParse, pageURL, err)
		}
		base = u
	}

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return "", fmt.Errorf("%w: failed to extract content: %w", ErrParse, err)
	}

	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		return "", fmt.Errorf("%w: no content extracted from %s", ErrParse, pageURL)
	}

	slog.Debug("Content extracted successfully",
		"url", pageURL,
		"title", article.Title,
		"content_length", len(content))

	return content, nil
}
