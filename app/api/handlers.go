package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsflow/app/analysis"
	"github.com/lysyi3m/newsflow/app/database"
	"github.com/lysyi3m/newsflow/app/feed"
	"github.com/lysyi3m/newsflow/app/store"
)

const maxHistoryLimit = 1000

// NewHandler creates the read API handlers. archive may be nil when the
// history archive is disabled.
func NewHandler(snapshots SnapshotReader, sources []feed.Source,
	archive database.ArchiveRepositoryInterface, version, baseUrl string) *Handler {
	return &Handler{
		snapshots: snapshots,
		sources:   sources,
		archive:   archive,
		generator: feed.NewGenerator(version),
		baseUrl:   baseUrl,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"sources":   len(h.sources),
	}

	if snapshot, err := h.snapshots.Load(); err == nil {
		health["articles"] = len(snapshot.Articles)
		health["collected_at"] = snapshot.CollectedAt
	} else {
		slog.Error("Store error", "operation", "health", "error", err)
		health["store_error"] = err.Error()
	}

	if h.archive != nil {
		if count, err := h.archive.Count(c.Request.Context()); err == nil {
			health["history"] = count
		}
	}

	c.JSON(http.StatusOK, health)
}

// ListArticles returns stored articles in stored order, optionally narrowed
// by category, source and sentiment.
func (h *Handler) ListArticles(c *gin.Context) {
	var category analysis.Category
	if name := c.Query("category"); name != "" {
		parsed, ok := analysis.ParseCategory(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category", "category": name})
			return
		}
		category = parsed
	}

	limit, ok := queryLimit(c, 0)
	if !ok {
		return
	}

	snapshot, err := h.snapshots.Load()
	if err != nil {
		slog.Error("Store error", "operation", "list_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store error"})
		return
	}

	source := c.Query("source")
	sentiment := analysis.Sentiment(c.Query("sentiment"))

	articles := make([]store.Article, 0, len(snapshot.Articles))
	for _, article := range snapshot.Articles {
		if category != "" && article.Category != string(category) {
			continue
		}
		if source != "" && article.Source != source {
			continue
		}
		if sentiment != "" && article.Sentiment != string(sentiment) {
			continue
		}
		articles = append(articles, article)
	}

	total := len(articles)
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"collected_at": snapshot.CollectedAt,
		"total":        total,
		"articles":     articles,
	})
}

func (h *Handler) GetArticle(c *gin.Context) {
	id := c.Param("id")

	snapshot, err := h.snapshots.Load()
	if err != nil {
		slog.Error("Store error", "operation", "get_article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store error"})
		return
	}

	article, ok := snapshot.ByID()[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, article)
}

func (h *Handler) ListSources(c *gin.Context) {
	sources := make([]sourceInfo, 0, len(h.sources))
	for _, src := range h.sources {
		sources = append(sources, sourceInfo{
			Name:     src.Name,
			URL:      src.URL,
			Category: src.Category,
			Enabled:  src.Enabled,
			Type:     src.Type,
			MaxItems: src.MaxItems,
			Filters:  len(src.Filters),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"total":   len(sources),
	})
}

// GetFeed renders the stored articles as RSS, optionally for one category.
func (h *Handler) GetFeed(c *gin.Context) {
	snapshot, err := h.snapshots.Load()
	if err != nil {
		slog.Error("Store error", "operation", "get_feed", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	channel := feed.Channel{
		Link:       h.baseUrl,
		SelfLink:   h.selfLink(c),
		SourceURLs: make(map[string]string, len(h.sources)),
	}
	for _, src := range h.sources {
		channel.SourceURLs[src.Name] = src.URL
	}

	if name := c.Query("category"); name != "" {
		category, ok := analysis.ParseCategory(name)
		if !ok {
			c.Status(http.StatusBadRequest)
			return
		}

		filtered := &store.Snapshot{CollectedAt: snapshot.CollectedAt}
		for _, article := range snapshot.Articles {
			if article.Category == string(category) {
				filtered.Articles = append(filtered.Articles, article)
			}
		}
		snapshot = filtered
		channel.Title = "NewsFlow: " + string(category)
	}

	rss, err := h.generator.Run(channel, snapshot)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(snapshot.Articles)))
	c.Header("X-Last-Updated", snapshot.CollectedAt)

	c.String(http.StatusOK, rss)
}

// APIListHistory returns archived articles, most recently first seen first.
func (h *Handler) APIListHistory(c *gin.Context) {
	limit, ok := queryLimit(c, 100)
	if !ok {
		return
	}
	limit = min(limit, maxHistoryLimit)

	articles, err := h.archive.RecentArticles(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "recent_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	count, err := h.archive.Count(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    count,
	})
}

func (h *Handler) selfLink(c *gin.Context) string {
	if h.baseUrl == "" {
		return ""
	}
	return h.baseUrl + c.Request.URL.RequestURI()
}

// queryLimit reads the "limit" query parameter. It writes a 400 response and
// returns false when the value is not a non-negative integer.
func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter", "limit": raw})
		return 0, false
	}

	return limit, true
}
