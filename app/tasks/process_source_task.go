package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/newsflow/app/feed"
	"github.com/lysyi3m/newsflow/app/store"
)

// ProcessSourceTask fetches, parses and enriches one source. The articles it
// produces belong to this task alone until the pool has finished.
type ProcessSourceTask struct {
	Task
	Source           feed.Source
	Articles         []store.Article
	fetcher          Fetcher
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
}

func NewProcessSourceTask(src feed.Source, maxRetries int, fetcher Fetcher, filterer *feed.Filterer, contentExtractor *feed.ContentExtractor) *ProcessSourceTask {
	return &ProcessSourceTask{
		Task:             NewTask(TaskTypeProcessSource, src.Name, maxRetries),
		Source:           src,
		fetcher:          fetcher,
		filterer:         filterer,
		contentExtractor: contentExtractor,
	}
}

func (t *ProcessSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := t.fetcher.Run(ctx, t.Source.URL, t.timeout())
	if err != nil {
		return fmt.Errorf("failed to fetch source: %w", err)
	}

	items, err := feed.ParserFor(t.Source).Run(data, t.Source)
	if err != nil {
		return fmt.Errorf("failed to parse source: %w", err)
	}

	parsedCount := len(items)
	if t.Source.MaxItems > 0 && len(items) > t.Source.MaxItems {
		items = items[:t.Source.MaxItems]
	}

	items = t.filterer.Run(items, t.Source.Filters)
	filteredCount := parsedCount - len(items)

	if t.Source.Type == feed.SourceTypeHTML && t.Source.ExtractContent {
		t.extractContent(ctx, items)
	}

	articles := make([]store.Article, 0, len(items))
	for _, item := range items {
		article, ok := BuildArticle(t.Source, item)
		if !ok {
			slog.Debug("Item dropped, empty title after normalization", "source", t.Source.Name, "link", item.Link)
			continue
		}
		articles = append(articles, article)
	}
	t.Articles = articles

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"parsed", parsedCount,
		"filtered", filteredCount,
		"articles", len(articles))

	return nil
}

// extractContent fills empty descriptions of scraped headlines with the
// readable text of the linked page. Failures only leave the item as it was.
func (t *ProcessSourceTask) extractContent(ctx context.Context, items []feed.RawItem) {
	successCount := 0
	errorCount := 0

	for i := range items {
		if items[i].Link == "" || items[i].Description != "" {
			continue
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		data, err := t.fetcher.Run(ctx, items[i].Link, t.timeout())
		if err != nil {
			slog.Warn("Failed to fetch article page", "source", t.SourceName, "url", items[i].Link, "error", err)
			errorCount++
			continue
		}

		content, err := t.contentExtractor.Run(data, items[i].Link)
		if err != nil {
			slog.Warn("Failed to extract content", "source", t.SourceName, "url", items[i].Link, "error", err)
			errorCount++
			continue
		}

		items[i].Description = content
		successCount++
	}

	slog.Debug("Content extraction finished", "source", t.SourceName, "success", successCount, "errors", errorCount)
}

func (t *ProcessSourceTask) timeout() time.Duration {
	return time.Duration(t.Source.Timeout) * time.Second
}
