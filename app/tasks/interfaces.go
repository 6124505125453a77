package tasks

import (
	"context"
	"time"
)

// Fetcher retrieves raw source content. *feed.Fetcher satisfies it.
type Fetcher interface {
	Run(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}
