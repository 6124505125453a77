package store

import "time"

// Article is the persisted unit. Every field is always encoded, and
// Keywords is never null.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Summary     string   `json:"summary"`
	Source      string   `json:"source"`
	Published   string   `json:"published"`
	Category    string   `json:"category"`
	Sentiment   string   `json:"sentiment"`
	ReadingTime int      `json:"reading_time"`
	Keywords    []string `json:"keywords"`
}

// PublishedTime parses Published. ok is false for empty or unparseable
// values.
func (a Article) PublishedTime() (time.Time, bool) {
	if a.Published == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, a.Published); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type Snapshot struct {
	CollectedAt string    `json:"collected_at"`
	Articles    []Article `json:"articles"`
}

// ByID indexes the snapshot articles by id.
func (s *Snapshot) ByID() map[string]Article {
	index := make(map[string]Article, len(s.Articles))
	for _, article := range s.Articles {
		index[article.ID] = article
	}
	return index
}
