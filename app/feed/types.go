package feed

type SourceType string

const (
	SourceTypeRSS  SourceType = "rss"
	SourceTypeHTML SourceType = "html"
)

// Source is one configured feed or page. Sources are loaded once per run and
// never mutated afterwards.
type Source struct {
	Name           string     `yaml:"name" json:"name"`
	URL            string     `yaml:"url" json:"url"`
	Category       string     `yaml:"category" json:"category"`
	Enabled        bool       `yaml:"enabled" json:"enabled"`
	Type           SourceType `yaml:"type" json:"type"`
	MaxItems       int        `yaml:"max_items" json:"max_items"`
	Timeout        int        `yaml:"timeout" json:"timeout"` // seconds
	Selectors      []string   `yaml:"selectors" json:"selectors,omitempty"`
	ExtractContent bool       `yaml:"extract_content" json:"extract_content"`
	Filters        []Filter   `yaml:"filters" json:"filters,omitempty"`
}

type Filter struct {
	Field    string   `yaml:"field" json:"field"`
	Includes []string `yaml:"includes" json:"includes,omitempty"`
	Excludes []string `yaml:"excludes" json:"excludes,omitempty"`
}

// RawItem is a parsed but not yet enriched entry. Title is plain text with
// entities already decoded, so a literal "<" in it is part of the headline.
// Description may still contain markup. Published is whatever date string
// the parser settled on.
type RawItem struct {
	Title       string
	Link        string
	Description string
	Published   string
}
