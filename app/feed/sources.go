package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxItems = 20
	DefaultTimeout  = 10 // seconds
)

// rawSource mirrors Source but keeps "enabled" optional so that a missing
// key means enabled.
type rawSource struct {
	Name           string     `yaml:"name"`
	URL            string     `yaml:"url"`
	Category       string     `yaml:"category"`
	Enabled        *bool      `yaml:"enabled"`
	Type           SourceType `yaml:"type"`
	MaxItems       int        `yaml:"max_items"`
	Timeout        int        `yaml:"timeout"`
	Selectors      []string   `yaml:"selectors"`
	ExtractContent bool       `yaml:"extract_content"`
	Filters        []Filter   `yaml:"filters"`
}

type SourceLoader struct {
	path     string
	maxItems int
	timeout  int
}

// NewSourceLoader creates a loader for the sources file at path. maxItems and
// timeout are applied to sources that do not set their own.
func NewSourceLoader(path string, maxItems, timeout int) *SourceLoader {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SourceLoader{path: path, maxItems: maxItems, timeout: timeout}
}

// Run reads and validates the sources file. The file may hold either a
// "sources:" mapping or a bare list, in YAML or JSON. A missing file yields
// DefaultSources.
func (l *SourceLoader) Run() ([]Source, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Sources file not found, using built-in sources", "path", l.path)
		sources := DefaultSources()
		for i := range sources {
			l.setDefaults(&sources[i])
		}
		return sources, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrConfig, l.path, err)
	}

	sources, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}

	slog.Debug("Sources loaded", "path", l.path, "count", len(sources))
	return sources, nil
}

// Parse decodes and validates a sources document.
func (l *SourceLoader) Parse(data []byte) ([]Source, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrConfig, err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	var raws []rawSource
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&raws); err != nil {
			return nil, fmt.Errorf("%w: failed to decode sources: %v", ErrConfig, err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Sources []rawSource `yaml:"sources"`
		}
		if err := node.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("%w: failed to decode sources: %v", ErrConfig, err)
		}
		raws = wrapped.Sources
	default:
		return nil, fmt.Errorf("%w: expected a list of sources", ErrConfig)
	}

	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: at least one source is required", ErrConfig)
	}

	sources := make([]Source, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		src := raw.toSource()
		l.setDefaults(&src)

		if err := validateSource(src); err != nil {
			return nil, fmt.Errorf("%w: source at index %d: %v", ErrConfig, i, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("%w: duplicate source name %q", ErrConfig, src.Name)
		}
		seen[src.Name] = true

		sources = append(sources, src)
	}

	return sources, nil
}

func (r rawSource) toSource() Source {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return Source{
		Name:           r.Name,
		URL:            r.URL,
		Category:       r.Category,
		Enabled:        enabled,
		Type:           r.Type,
		MaxItems:       r.MaxItems,
		Timeout:        r.Timeout,
		Selectors:      r.Selectors,
		ExtractContent: r.ExtractContent,
		Filters:        r.Filters,
	}
}

func (l *SourceLoader) setDefaults(src *Source) {
	if src.Type == "" {
		src.Type = SourceTypeRSS
	}
	if src.MaxItems == 0 {
		src.MaxItems = l.maxItems
	}
	if src.Timeout == 0 {
		src.Timeout = l.timeout
	}
	if src.Type == SourceTypeHTML && len(src.Selectors) == 0 {
		src.Selectors = DefaultSelectors()
	}
}

func validateSource(src Source) error {
	requiredFields := map[string]string{
		"source name": src.Name,
		"source URL":  src.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	u, err := url.Parse(src.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source URL %q must be an absolute http(s) URL", src.URL)
	}

	if src.Type != SourceTypeRSS && src.Type != SourceTypeHTML {
		return fmt.Errorf("unknown source type %q", src.Type)
	}

	nonNegativeFields := map[string]int{
		"max items": src.MaxItems,
		"timeout":   src.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	for _, selector := range src.Selectors {
		if _, err := cascadia.Compile(selector); err != nil {
			return fmt.Errorf("invalid selector %q: %v", selector, err)
		}
	}

	for i, filter := range src.Filters {
		if !validFilterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}

// DefaultSources returns the built-in source list. Each call returns a new
// slice, so callers may not affect one another.
func DefaultSources() []Source {
	return []Source{
		{Name: "BBC World", URL: "http://feeds.bbci.co.uk/news/world/rss.xml", Category: "World", Enabled: true, Type: SourceTypeRSS},
		{Name: "TechCrunch", URL: "https://techcrunch.com/feed/", Category: "Tech", Enabled: true, Type: SourceTypeRSS},
		{Name: "Hacker News", URL: "https://hnrss.org/frontpage", Category: "Tech", Enabled: true, Type: SourceTypeRSS},
		{Name: "Reuters", URL: "https://www.reutersagency.com/feed/", Category: "World", Enabled: true, Type: SourceTypeRSS},
		{Name: "BBC Home", URL: "https://www.bbc.com/news", Category: "World", Enabled: false, Type: SourceTypeHTML},
	}
}
