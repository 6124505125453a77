package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		CollectedAt: "2024-05-01T10:00:00Z",
		Articles: []Article{
			{
				ID:          "a1",
				Title:       "First story",
				Link:        "https://example.com/1",
				Summary:     "Summary one",
				Source:      "Example",
				Published:   "2024-05-01T09:00:00Z",
				Category:    "Tech",
				Sentiment:   "neutral",
				ReadingTime: 1,
				Keywords:    []string{"first", "story"},
			},
		},
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "news.json"))

	snapshot, err := s.Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(snapshot.Articles) != 0 {
		t.Errorf("Expected empty snapshot, got %d articles", len(snapshot.Articles))
	}
	if snapshot.Articles == nil {
		t.Error("Expected non-nil articles slice")
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "data", "news.json"))

	if err := s.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	snapshot, err := s.Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if snapshot.CollectedAt != "2024-05-01T10:00:00Z" {
		t.Errorf("Expected collected_at to round-trip, got %s", snapshot.CollectedAt)
	}
	if len(snapshot.Articles) != 1 || snapshot.Articles[0].Title != "First story" {
		t.Errorf("Expected the saved article back, got %+v", snapshot.Articles)
	}
}

func TestSave_FieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.json")
	s := New(path)

	snapshot := sampleSnapshot()
	snapshot.Articles[0].Keywords = []string{}
	if err := s.Save(snapshot); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	for _, field := range []string{`"collected_at"`, `"articles"`, `"id"`, `"title"`, `"link"`, `"summary"`,
		`"source"`, `"published"`, `"category"`, `"sentiment"`, `"reading_time"`, `"keywords": []`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Expected store to contain %s", field)
		}
	}
}

func TestLoad_LegacyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.json")
	legacy := `[{"id":"x","title":"Legacy story","link":"","summary":"","source":"Old","published":"","category":"General","sentiment":"neutral","reading_time":1}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	snapshot, err := New(path).Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if snapshot.CollectedAt != "" {
		t.Errorf("Expected empty collected_at, got %s", snapshot.CollectedAt)
	}
	if len(snapshot.Articles) != 1 || snapshot.Articles[0].Title != "Legacy story" {
		t.Fatalf("Expected legacy article, got %+v", snapshot.Articles)
	}
	if snapshot.Articles[0].Keywords == nil {
		t.Error("Expected missing keywords to load as an empty slice")
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.json")
	if err := os.WriteFile(path, []byte(`{"articles": [`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(path).Load()
	if !errors.Is(err, ErrIO) {
		t.Errorf("Expected ErrIO, got: %v", err)
	}
}

func TestSave_FailureKeepsPreviousStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "news.json")
	s := New(path)

	if err := s.Save(sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	s.write = func(w io.Writer, data []byte) error {
		// Half the payload lands before the simulated failure.
		if _, err := w.Write(data[:len(data)/2]); err != nil {
			return err
		}
		return errors.New("disk full")
	}

	next := sampleSnapshot()
	next.Articles[0].Title = "Replacement"
	err = s.Save(next)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Expected ErrIO, got: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("Expected previous store to be unmodified after a failed save")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected temp file to be cleaned up, found %d entries", len(entries))
	}
}

func TestSave_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(filepath.Join(blocker, "news.json"))
	if err := s.Save(sampleSnapshot()); !errors.Is(err, ErrIO) {
		t.Errorf("Expected ErrIO, got: %v", err)
	}
}

func TestPublishedTime(t *testing.T) {
	tests := []struct {
		published string
		ok        bool
	}{
		{"2024-05-01T09:00:00Z", true},
		{"Mon, 02 Jan 2006 15:04:05 -0700", true},
		{"2024-05-01", true},
		{"", false},
		{"yesterday", false},
	}

	for _, tt := range tests {
		_, ok := Article{Published: tt.published}.PublishedTime()
		if ok != tt.ok {
			t.Errorf("PublishedTime(%q): expected ok=%v, got %v", tt.published, tt.ok, ok)
		}
	}
}
