package api

import (
	"github.com/lysyi3m/newsflow/app/database"
	"github.com/lysyi3m/newsflow/app/feed"
	"github.com/lysyi3m/newsflow/app/store"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, snapshot *store.Snapshot) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// SnapshotReader gives read access to the persisted articles.
type SnapshotReader interface {
	Load() (*store.Snapshot, error)
}

var _ SnapshotReader = (*store.Store)(nil)

type Handler struct {
	snapshots SnapshotReader
	sources   []feed.Source
	archive   database.ArchiveRepositoryInterface
	generator GeneratorInterface
	baseUrl   string
}

type sourceInfo struct {
	Name     string          `json:"name"`
	URL      string          `json:"url"`
	Category string          `json:"category"`
	Enabled  bool            `json:"enabled"`
	Type     feed.SourceType `json:"type"`
	MaxItems int             `json:"max_items"`
	Filters  int             `json:"filters"`
}
