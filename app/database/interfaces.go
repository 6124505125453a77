package database

import (
	"context"
	"time"

	"github.com/lysyi3m/newsflow/app/store"
)

type ArchiveRepositoryInterface interface {
	UpsertArticles(ctx context.Context, articles []store.Article, seenAt time.Time) error
	Prune(ctx context.Context, keep int) (int64, error)

	RecentArticles(ctx context.Context, limit int) ([]ArchivedArticle, error)
	Count(ctx context.Context) (int, error)
}
