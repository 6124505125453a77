package database

import (
	"time"

	"github.com/lysyi3m/newsflow/app/store"
)

// ArchivedArticle is an article as kept in the history archive.
type ArchivedArticle struct {
	store.Article
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}
