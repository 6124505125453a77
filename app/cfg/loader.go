package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

var ErrInvalid = errors.New("invalid configuration")

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCommonCfg struct {
	StorePath   string `long:"store" env:"STORE_PATH" default:"data/news.json" description:"Path of the JSON article store"`
	SourcesPath string `long:"sources" env:"SOURCES_PATH" default:"data/sources.yml" description:"Path of the sources file (YAML or JSON)"`
	HistoryDB   string `long:"history-db" env:"HISTORY_DB" description:"SQLite file for the article history archive (disabled when empty)"`
	Debug       bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

type rawCollectorCfg struct {
	rawCommonCfg

	All      bool   `long:"all" description:"Collect from every enabled source (default)"`
	Source   string `long:"source" env:"SOURCE" value-name:"NAME" description:"Collect from the named source only"`
	Category string `long:"category" env:"CATEGORY" value-name:"CAT" description:"Keep only articles of this category"`

	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"NewsFlow/1.0" description:"User agent string for HTTP requests"`
	MaxItems  int    `long:"max-items" env:"MAX_ITEMS" default:"20" description:"Default number of items taken from each source"`
	Timeout   int    `long:"timeout" env:"FETCH_TIMEOUT" default:"10" description:"Default fetch timeout in seconds"`
	Workers   int    `long:"workers" env:"WORKER_COUNT" default:"4" description:"Number of sources fetched concurrently"`
	Retries   int    `long:"retries" env:"RETRIES" default:"1" description:"Retries for a failed source"`
	Interval  int    `long:"interval" env:"INTERVAL" default:"0" description:"Re-run every N seconds (0 runs once)"`

	Keywords     []string `long:"keyword" env:"KEYWORDS" env-delim:"," description:"Keyword to watch in new articles (repeatable)"`
	KeywordMatch string   `long:"keyword-match" env:"KEYWORD_MATCH" default:"substring" choice:"substring" choice:"word" description:"How watched keywords are matched"`
	HistoryLimit int      `long:"history-limit" env:"HISTORY_LIMIT" default:"1000" description:"Number of articles kept in the history archive"`
}

type rawServerCfg struct {
	rawCommonCfg

	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the history endpoint (optional)"`
}

// LoadCollector parses the collector flags and environment. It returns nil
// and no error when help was requested.
func LoadCollector(args []string) (*Cfg, error) {
	var raw rawCollectorCfg
	if ok, err := parse(&raw, args); !ok || err != nil {
		return nil, err
	}

	if raw.All && raw.Source != "" {
		return nil, fmt.Errorf("%w: --all and --source are mutually exclusive", ErrInvalid)
	}

	cfg := &Cfg{
		StorePath:    raw.StorePath,
		SourcesPath:  raw.SourcesPath,
		HistoryDB:    raw.HistoryDB,
		UserAgent:    raw.UserAgent,
		MaxItems:     raw.MaxItems,
		Timeout:      raw.Timeout,
		Workers:      raw.Workers,
		Retries:      raw.Retries,
		Source:       raw.Source,
		Category:     raw.Category,
		Interval:     raw.Interval,
		Keywords:     raw.Keywords,
		KeywordMatch: raw.KeywordMatch,
		HistoryLimit: raw.HistoryLimit,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := validateCollector(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadServer parses the read API flags and environment. It returns nil and
// no error when help was requested.
func LoadServer(args []string) (*Cfg, error) {
	var raw rawServerCfg
	if ok, err := parse(&raw, args); !ok || err != nil {
		return nil, err
	}

	cfg := &Cfg{
		StorePath:    raw.StorePath,
		SourcesPath:  raw.SourcesPath,
		HistoryDB:    raw.HistoryDB,
		Port:         raw.Port,
		BaseUrl:      strings.TrimSuffix(raw.BaseUrl, "/"),
		APIAccessKey: raw.APIAccessKey,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if cfg.Port == "" {
		return nil, fmt.Errorf("%w: port is required", ErrInvalid)
	}

	return cfg, nil
}

func parse(data any, args []string) (bool, error) {
	parser := flags.NewParser(data, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return false, nil
			}
		}
		return false, fmt.Errorf("%w: failed to parse configuration: %w", ErrInvalid, err)
	}

	return true, nil
}

func validateCollector(cfg *Cfg) error {
	positiveFields := map[string]int{
		"workers":       cfg.Workers,
		"max items":     cfg.MaxItems,
		"timeout":       cfg.Timeout,
		"history limit": cfg.HistoryLimit,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalid, fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"retries":  cfg.Retries,
		"interval": cfg.Interval,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%w: %s must be non-negative", ErrInvalid, fieldName)
		}
	}

	return nil
}

// SetupLogging installs the default structured logger on stderr.
func SetupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
