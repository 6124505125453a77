package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/lysyi3m/newsflow/app/analysis"
	"github.com/lysyi3m/newsflow/app/feed"
	"github.com/lysyi3m/newsflow/app/store"
	"github.com/lysyi3m/newsflow/app/tasks"
	"github.com/lysyi3m/newsflow/app/text"
)

const (
	dedupKeyLength      = 50
	DefaultHistoryLimit = 1000
)

type State string

const (
	StateIdle          State = "Idle"
	StateFetchingAll   State = "FetchingAll"
	StateEnriching     State = "Enriching"
	StateDeduplicating State = "Deduplicating"
	StatePersisting    State = "Persisting"
	StateDone          State = "Done"
)

// Archive keeps the history of every collected article.
// *database.ArchiveRepository satisfies it.
type Archive interface {
	UpsertArticles(ctx context.Context, articles []store.Article, seenAt time.Time) error
	Prune(ctx context.Context, keep int) (int64, error)
}

type Options struct {
	Workers      int
	Retries      int
	SourceName   string // run only this source, even when disabled
	Category     string // keep only articles of this category
	Sinks        []EventSink
	Matcher      *KeywordMatcher
	Archive      Archive
	HistoryLimit int
}

type SourceResult struct {
	Name  string
	Count int
	Err   error
}

type Result struct {
	Sources  []SourceResult
	Total    int
	Events   []Event
	Snapshot *store.Snapshot
}

// Pipeline runs one collection pass over a fixed source list. The source
// list is never modified.
type Pipeline struct {
	sources          []feed.Source
	fetcher          tasks.Fetcher
	store            *store.Store
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	pool             *tasks.Pool
	opts             Options
	now              func() time.Time
}

func New(sources []feed.Source, fetcher tasks.Fetcher, st *store.Store, opts Options) *Pipeline {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}

	return &Pipeline{
		sources:          sources,
		fetcher:          fetcher,
		store:            st,
		filterer:         feed.NewFilterer(),
		contentExtractor: feed.NewContentExtractor(),
		pool:             tasks.NewPool(opts.Workers),
		opts:             opts,
		now:              time.Now,
	}
}

// Run fetches every selected source, merges and deduplicates the articles,
// and replaces the store. Source failures are reported in the result; only
// configuration errors, store errors and cancellation of ctx are returned.
// A cancelled run neither writes the store nor publishes events.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.setState(StateIdle)

	selected, category, err := p.selection()
	if err != nil {
		return nil, err
	}

	previous, err := p.store.Load()
	if err != nil {
		return nil, err
	}

	p.setState(StateFetchingAll)
	sourceTasks := make([]*tasks.ProcessSourceTask, len(selected))
	queue := make([]tasks.TaskInterface, len(selected))
	for i, src := range selected {
		sourceTasks[i] = tasks.NewProcessSourceTask(src, p.opts.Retries, p.fetcher, p.filterer, p.contentExtractor)
		queue[i] = sourceTasks[i]
	}
	p.pool.Run(ctx, queue)

	// An interrupted run leaves the previous store in place.
	if err := ctx.Err(); err != nil {
		slog.Warn("Collection interrupted, store left unchanged", "error", err)
		return nil, fmt.Errorf("collection interrupted: %w", err)
	}

	p.setState(StateEnriching)
	result := &Result{Sources: make([]SourceResult, len(sourceTasks))}
	var merged []store.Article
	for i, task := range sourceTasks {
		result.Sources[i] = SourceResult{Name: task.Source.Name, Err: task.Err()}
		if task.Err() != nil {
			slog.Warn("Source failed, contributing no articles", "source", task.Source.Name, "error", task.Err())
			continue
		}
		result.Sources[i].Count = len(task.Articles)
		merged = append(merged, task.Articles...)
	}

	p.setState(StateDeduplicating)
	articles := Deduplicate(merged)
	if category != "" {
		articles = filterCategory(articles, category)
	}
	SortByPublished(articles)

	p.setState(StatePersisting)
	snapshot := &store.Snapshot{
		CollectedAt: p.now().UTC().Format(time.RFC3339),
		Articles:    articles,
	}
	if err := p.store.Save(snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist articles: %w", err)
	}

	result.Total = len(articles)
	result.Snapshot = snapshot
	result.Events = NewArticleEvents(previous, snapshot, p.opts.Matcher)

	p.publish(ctx, result.Events)
	p.archive(ctx, articles)

	p.setState(StateDone)
	slog.Info("Collection finished", "sources", len(selected), "articles", result.Total, "new", len(result.Events))

	return result, nil
}

func (p *Pipeline) selection() ([]feed.Source, analysis.Category, error) {
	var category analysis.Category
	if p.opts.Category != "" {
		c, ok := analysis.ParseCategory(p.opts.Category)
		if !ok {
			return nil, "", fmt.Errorf("%w: unknown category %q", feed.ErrConfig, p.opts.Category)
		}
		category = c
	}

	if p.opts.SourceName != "" {
		for _, src := range p.sources {
			if strings.EqualFold(src.Name, p.opts.SourceName) {
				return []feed.Source{src}, category, nil
			}
		}
		return nil, "", fmt.Errorf("%w: unknown source %q", feed.ErrConfig, p.opts.SourceName)
	}

	var selected []feed.Source
	for _, src := range p.sources {
		if !src.Enabled {
			slog.Debug("Source disabled, skipping", "source", src.Name)
			continue
		}
		selected = append(selected, src)
	}
	return selected, category, nil
}

func (p *Pipeline) publish(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	for _, sink := range p.opts.Sinks {
		if err := sink.Publish(ctx, events); err != nil {
			slog.Error("Failed to publish events", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
}

func (p *Pipeline) archive(ctx context.Context, articles []store.Article) {
	if p.opts.Archive == nil {
		return
	}
	if err := p.opts.Archive.UpsertArticles(ctx, articles, p.now().UTC()); err != nil {
		slog.Error("Failed to record history", "error", err)
		return
	}
	pruned, err := p.opts.Archive.Prune(ctx, p.opts.HistoryLimit)
	if err != nil {
		slog.Error("Failed to prune history", "error", err)
		return
	}
	if pruned > 0 {
		slog.Debug("History pruned", "removed", pruned, "keep", p.opts.HistoryLimit)
	}
}

func (p *Pipeline) setState(state State) {
	slog.Debug("Pipeline state", "state", string(state))
}

// DedupKey is the lowercased title cut to fifty characters.
func DedupKey(title string) string {
	return text.Truncate(strings.ToLower(title), dedupKeyLength)
}

// Deduplicate keeps the first article for every dedup key.
func Deduplicate(articles []store.Article) []store.Article {
	seen := make(map[string]bool, len(articles))
	unique := make([]store.Article, 0, len(articles))
	for _, article := range articles {
		key := DedupKey(article.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, article)
	}
	return unique
}

func filterCategory(articles []store.Article, category analysis.Category) []store.Article {
	kept := articles[:0]
	for _, article := range articles {
		if strings.EqualFold(article.Category, string(category)) {
			kept = append(kept, article)
		}
	}
	return kept
}

// SortByPublished orders articles newest first. Articles without a
// parseable date go last; equal dates keep their merge order.
func SortByPublished(articles []store.Article) {
	slices.SortStableFunc(articles, func(a, b store.Article) int {
		at, aok := a.PublishedTime()
		bt, bok := b.PublishedTime()
		switch {
		case aok && bok:
			return bt.Compare(at)
		case aok:
			return -1
		case bok:
			return 1
		default:
			return 0
		}
	})
}

// Failed counts the sources that contributed nothing because of an error.
func (r *Result) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}
