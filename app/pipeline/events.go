package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lysyi3m/newsflow/app/store"
)

// Event announces an article that was not part of the previous snapshot.
type Event struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Link           string   `json:"link"`
	Source         string   `json:"source"`
	KeywordMatches []string `json:"keyword_matches"`
}

// EventSink receives the new-article events of a run. Sinks run after the
// store has been written; their errors are logged and never fail the run.
type EventSink interface {
	Publish(ctx context.Context, events []Event) error
}

type MatchMode string

const (
	MatchSubstring MatchMode = "substring"
	MatchWord      MatchMode = "word"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(s)) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchWord:
		return MatchWord, nil
	default:
		return "", fmt.Errorf("unknown keyword match mode %q", s)
	}
}

// KeywordMatcher reports which watched keywords occur in an article.
type KeywordMatcher struct {
	keywords []string
	mode     MatchMode
	patterns []*regexp.Regexp
}

func NewKeywordMatcher(keywords []string, mode MatchMode) *KeywordMatcher {
	m := &KeywordMatcher{mode: mode}
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		m.keywords = append(m.keywords, keyword)
		if mode == MatchWord {
			m.patterns = append(m.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(keyword)+`\b`))
		}
	}
	return m
}

// Match returns the matching keywords in the order they were configured.
func (m *KeywordMatcher) Match(article store.Article) []string {
	haystack := article.Title + " " + article.Summary
	lowered := strings.ToLower(haystack)

	matches := []string{}
	for i, keyword := range m.keywords {
		var hit bool
		if m.mode == MatchWord {
			hit = m.patterns[i].MatchString(haystack)
		} else {
			hit = strings.Contains(lowered, strings.ToLower(keyword))
		}
		if hit {
			matches = append(matches, keyword)
		}
	}
	return matches
}

// NewArticleEvents lists the articles of current whose id is absent from
// previous, in current order.
func NewArticleEvents(previous, current *store.Snapshot, matcher *KeywordMatcher) []Event {
	seen := previous.ByID()

	events := []Event{}
	for _, article := range current.Articles {
		if _, ok := seen[article.ID]; ok {
			continue
		}
		matches := []string{}
		if matcher != nil {
			matches = matcher.Match(article)
		}
		events = append(events, Event{
			ID:             article.ID,
			Title:          article.Title,
			Link:           article.Link,
			Source:         article.Source,
			KeywordMatches: matches,
		})
	}
	return events
}

// LogSink writes every event to the structured log.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, events []Event) error {
	for _, event := range events {
		if len(event.KeywordMatches) > 0 {
			slog.Info("Keyword alert", "title", event.Title, "source", event.Source, "link", event.Link, "keywords", event.KeywordMatches)
			continue
		}
		slog.Debug("New article", "title", event.Title, "source", event.Source, "link", event.Link)
	}
	return nil
}
