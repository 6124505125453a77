package cfg

type Cfg struct {
	// Storage
	StorePath   string
	SourcesPath string
	HistoryDB   string

	// Fetching
	UserAgent string
	MaxItems  int
	Timeout   int
	Workers   int
	Retries   int

	// Collector run selection
	Source   string
	Category string
	Interval int

	// New-article alerts
	Keywords     []string
	KeywordMatch string
	HistoryLimit int

	// Read API
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Application metadata
	Debug   bool
	Version string
}
