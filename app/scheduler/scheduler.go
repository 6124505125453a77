package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/newsflow/app/pipeline"
)

// Runner performs one collection pass. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Scheduler re-runs the collection on a fixed interval. A failed run is
// logged and the next tick runs again.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	onResult func(*pipeline.Result, error)
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewScheduler(ctx context.Context, runner Runner, interval time.Duration, onResult func(*pipeline.Result, error)) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)

	return &Scheduler{
		runner:   runner,
		interval: interval,
		onResult: onResult,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the first pass right away and then on every tick.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
}

// Stop cancels the current pass, if any, and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Done is closed once the scheduler has been stopped or its parent context
// cancelled.
func (s *Scheduler) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *Scheduler) runOnce() {
	start := time.Now()
	result, err := s.runner.Run(s.ctx)
	switch {
	case err != nil && s.ctx.Err() != nil:
		slog.Info("Scheduled collection interrupted", "duration", time.Since(start))
	case err != nil:
		slog.Error("Scheduled collection failed", "error", err, "duration", time.Since(start))
	default:
		slog.Debug("Scheduled collection completed", "articles", result.Total, "duration", time.Since(start))
	}

	if s.onResult != nil {
		s.onResult(result, err)
	}
}
