package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/newsflow/app/store"
)

var _ ArchiveRepositoryInterface = (*ArchiveRepository)(nil)

// ArchiveRepository keeps every article ever collected, keyed by article id.
type ArchiveRepository struct {
	db *DB
}

func NewArchiveRepository(db *DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// UpsertArticles records the articles of one run. New articles get seenAt as
// their first sighting; known ones only move last_seen_at forward.
func (r *ArchiveRepository) UpsertArticles(ctx context.Context, articles []store.Article, seenAt time.Time) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (
			id, title, link, summary, source, published,
			category, sentiment, reading_time, keywords,
			first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			summary = excluded.summary,
			published = excluded.published,
			category = excluded.category,
			sentiment = excluded.sentiment,
			reading_time = excluded.reading_time,
			keywords = excluded.keywords,
			last_seen_at = excluded.last_seen_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	seen := formatTime(seenAt)
	for _, article := range articles {
		keywords, err := json.Marshal(nonNil(article.Keywords))
		if err != nil {
			return fmt.Errorf("failed to encode keywords: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			article.ID, article.Title, article.Link, article.Summary, article.Source, article.Published,
			article.Category, article.Sentiment, article.ReadingTime, string(keywords),
			seen, seen)
		if err != nil {
			return fmt.Errorf("failed to upsert article %s: %w", article.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Prune deletes everything but the keep most recently first-seen articles
// and returns the number of rows removed.
func (r *ArchiveRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM articles
		WHERE id NOT IN (
			SELECT id FROM articles
			ORDER BY first_seen_at DESC, rowid ASC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune archive: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get pruned row count: %w", err)
	}

	return removed, nil
}

// RecentArticles returns up to limit articles, most recently first-seen first.
func (r *ArchiveRepository) RecentArticles(ctx context.Context, limit int) ([]ArchivedArticle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, link, summary, source, published,
			category, sentiment, reading_time, keywords,
			first_seen_at, last_seen_at
		FROM articles
		ORDER BY first_seen_at DESC, rowid ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	articles := []ArchivedArticle{}
	for rows.Next() {
		var a ArchivedArticle
		var keywords, firstSeen, lastSeen string

		err := rows.Scan(&a.ID, &a.Title, &a.Link, &a.Summary, &a.Source, &a.Published,
			&a.Category, &a.Sentiment, &a.ReadingTime, &keywords,
			&firstSeen, &lastSeen)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}

		if err := json.Unmarshal([]byte(keywords), &a.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode keywords of %s: %w", a.ID, err)
		}
		a.Keywords = nonNil(a.Keywords)

		if a.FirstSeenAt, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
			return nil, fmt.Errorf("failed to parse first_seen_at of %s: %w", a.ID, err)
		}
		if a.LastSeenAt, err = time.Parse(time.RFC3339Nano, lastSeen); err != nil {
			return nil, fmt.Errorf("failed to parse last_seen_at of %s: %w", a.ID, err)
		}

		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate archive: %w", err)
	}

	return articles, nil
}

func (r *ArchiveRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// formatTime uses a fixed-width layout so that stored timestamps sort
// lexically in time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func nonNil(keywords []string) []string {
	if keywords == nil {
		return []string{}
	}
	return keywords
}
