package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/newsflow/app/database"
	"github.com/lysyi3m/newsflow/app/feed"
	"github.com/lysyi3m/newsflow/app/store"
)

type fakeSnapshots struct {
	snapshot *store.Snapshot
	err      error
}

func (f *fakeSnapshots) Load() (*store.Snapshot, error) {
	return f.snapshot, f.err
}

type fakeArchive struct {
	articles []database.ArchivedArticle
}

func (f *fakeArchive) UpsertArticles(ctx context.Context, articles []store.Article, seenAt time.Time) error {
	return nil
}

func (f *fakeArchive) Prune(ctx context.Context, keep int) (int64, error) {
	return 0, nil
}

func (f *fakeArchive) RecentArticles(ctx context.Context, limit int) ([]database.ArchivedArticle, error) {
	if limit < len(f.articles) {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

func (f *fakeArchive) Count(ctx context.Context) (int, error) {
	return len(f.articles), nil
}

func testSnapshot() *store.Snapshot {
	return &store.Snapshot{
		CollectedAt: "2026-03-01T12:00:00Z",
		Articles: []store.Article{
			{ID: "a1", Title: "AI model beats benchmark", Source: "Tech Daily", Category: "AI", Sentiment: "positive", ReadingTime: 1, Keywords: []string{}},
			{ID: "a2", Title: "Markets slide on rate fears", Source: "Money Wire", Category: "Finance", Sentiment: "negative", ReadingTime: 1, Keywords: []string{}},
			{ID: "a3", Title: "New GPU architecture announced", Source: "Tech Daily", Category: "Tech", Sentiment: "neutral", ReadingTime: 2, Keywords: []string{}},
		},
	}
}

func setupServer(t *testing.T, snapshots SnapshotReader, archive database.ArchiveRepositoryInterface, apiKey string) http.Handler {
	t.Helper()

	sources := []feed.Source{
		{Name: "Tech Daily", URL: "https://tech.example.com/rss", Category: "Tech", Enabled: true, Type: feed.SourceTypeRSS, MaxItems: 20},
		{Name: "Money Wire", URL: "https://money.example.com/", Category: "Finance", Enabled: false, Type: feed.SourceTypeHTML, MaxItems: 5},
	}

	handler := NewHandler(snapshots, sources, archive, "test", "https://news.example.com")
	return NewServer(handler, apiKey, "test")
}

func get(t *testing.T, server http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestListArticles(t *testing.T) {
	server := setupServer(t, &fakeSnapshots{snapshot: testSnapshot()}, nil, "")

	tests := []struct {
		name     string
		path     string
		status   int
		expected []string
	}{
		{"all", "/articles", http.StatusOK, []string{"a1", "a2", "a3"}},
		{"category", "/articles?category=tech", http.StatusOK, []string{"a3"}},
		{"source", "/articles?source=Tech+Daily", http.StatusOK, []string{"a1", "a3"}},
		{"sentiment", "/articles?sentiment=negative", http.StatusOK, []string{"a2"}},
		{"limit", "/articles?limit=2", http.StatusOK, []string{"a1", "a2"}},
		{"unknown category", "/articles?category=Sports", http.StatusBadRequest, nil},
		{"bad limit", "/articles?limit=-1", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, server, tt.path, nil)
			if rec.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status != http.StatusOK {
				return
			}

			var body struct {
				Articles []store.Article `json:"articles"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if len(body.Articles) != len(tt.expected) {
				t.Fatalf("Expected %d articles, got %d", len(tt.expected), len(body.Articles))
			}
			for i, id := range tt.expected {
				if body.Articles[i].ID != id {
					t.Errorf("Expected article %d to be %s, got %s", i, id, body.Articles[i].ID)
				}
			}
		})
	}
}

func TestListArticles_StoreError(t *testing.T) {
	server := setupServer(t, &fakeSnapshots{err: store.ErrIO}, nil, "")

	rec := get(t, server, "/articles", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestGetArticle(t *testing.T) {
	server := setupServer(t, &fakeSnapshots{snapshot: testSnapshot()}, nil, "")

	rec := get(t, server, "/articles/a2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var article store.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &article); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if article.Title != "Markets slide on rate fears" {
		t.Errorf("Unexpected article: %+v", article)
	}

	rec = get(t, server, "/articles/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestListSources(t *testing.T) {
	server := setupServer(t, &fakeSnapshots{snapshot: testSnapshot()}, nil, "")

	rec := get(t, server, "/sources", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body struct {
		Sources []sourceInfo `json:"sources"`
		Total   int          `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body.Total != 2 || body.Sources[1].Name != "Money Wire" || body.Sources[1].Enabled {
		t.Errorf("Unexpected sources: %+v", body)
	}
}

func TestGetFeed(t *testing.T) {
	server := setupServer(t, &fakeSnapshots{snapshot: testSnapshot()}, nil, "")

	rec := get(t, server, "/feed.xml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Expected XML content type, got %s", ct)
	}
	if rec.Header().Get("X-Feed-Items") != "3" {
		t.Errorf("Expected 3 feed items, got %s", rec.Header().Get("X-Feed-Items"))
	}

	body := rec.Body.String()
	if !strings.Contains(body, `href="https://news.example.com/feed.xml"`) {
		t.Error("Expected self link built from base URL")
	}
	if !strings.Contains(body, `<source url="https://tech.example.com/rss">Tech Daily</source>`) {
		t.Error("Expected source element with the configured source URL")
	}
	if strings.Index(body, "AI model beats benchmark") > strings.Index(body, "New GPU architecture announced") {
		t.Error("Expected items in stored order")
	}

	rec = get(t, server, "/feed.xml?category=finance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	body = rec.Body.String()
	if !strings.Contains(body, "<title>NewsFlow: Finance</title>") {
		t.Error("Expected category channel title")
	}
	if strings.Contains(body, "AI model beats benchmark") {
		t.Error("Expected articles of other categories to be left out")
	}

	rec = get(t, server, "/feed.xml?category=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetHealth(t *testing.T) {
	archive := &fakeArchive{articles: make([]database.ArchivedArticle, 7)}
	server := setupServer(t, &fakeSnapshots{snapshot: testSnapshot()}, archive, "")

	rec := get(t, server, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body["articles"] != float64(3) {
		t.Errorf("Expected 3 articles, got %v", body["articles"])
	}
	if body["history"] != float64(7) {
		t.Errorf("Expected 7 archived articles, got %v", body["history"])
	}
	if body["collected_at"] != "2026-03-01T12:00:00Z" {
		t.Errorf("Unexpected collected_at: %v", body["collected_at"])
	}
}

func TestHistoryAuth(t *testing.T) {
	archive := &fakeArchive{articles: []database.ArchivedArticle{
		{Article: store.Article{ID: "h1", Title: "Older headline"}},
		{Article: store.Article{ID: "h2", Title: "Oldest headline"}},
	}}
	server := setupServer(t, &fakeSnapshots{snapshot: testSnapshot()}, archive, "secret")

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer key", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, server, "/api/history?limit=1", tt.headers)
			if rec.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status != http.StatusOK {
				return
			}

			var body struct {
				Articles []database.ArchivedArticle `json:"articles"`
				Total    int                        `json:"total"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if len(body.Articles) != 1 || body.Articles[0].ID != "h1" || body.Total != 2 {
				t.Errorf("Unexpected history response: %+v", body)
			}
		})
	}
}

func TestHistoryDisabledWithoutKey(t *testing.T) {
	server := setupServer(t, &fakeSnapshots{snapshot: testSnapshot()}, &fakeArchive{}, "")

	rec := get(t, server, "/api/history", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := setupServer(t, &fakeSnapshots{snapshot: testSnapshot()}, nil, "")

	req := httptest.NewRequest(http.MethodOptions, "/articles", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestRootEndpoint(t *testing.T) {
	server := setupServer(t, &fakeSnapshots{err: errors.New("unused")}, nil, "")

	rec := get(t, server, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"service":"NewsFlow"`) {
		t.Errorf("Unexpected root response: %s", rec.Body.String())
	}
}
