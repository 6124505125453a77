package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/newsflow/app/cfg"
	"github.com/lysyi3m/newsflow/app/database"
	"github.com/lysyi3m/newsflow/app/feed"
	"github.com/lysyi3m/newsflow/app/pipeline"
	"github.com/lysyi3m/newsflow/app/report"
	"github.com/lysyi3m/newsflow/app/scheduler"
	"github.com/lysyi3m/newsflow/app/store"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes the collector and returns the process exit code. The summary
// goes to stdout.
func run(args []string, stdout io.Writer) int {
	appCfg, err := cfg.LoadCollector(args)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return exitConfig
	}
	if appCfg == nil {
		return exitOK
	}

	cfg.SetupLogging(appCfg.Debug)
	slog.Debug("Starting NewsFlow collector", "version", appCfg.Version)

	sources, err := feed.NewSourceLoader(appCfg.SourcesPath, appCfg.MaxItems, appCfg.Timeout).Run()
	if err != nil {
		slog.Error("Failed to load sources", "error", err)
		return exitConfig
	}

	matchMode, err := pipeline.ParseMatchMode(appCfg.KeywordMatch)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return exitConfig
	}

	opts := pipeline.Options{
		Workers:      appCfg.Workers,
		Retries:      appCfg.Retries,
		SourceName:   appCfg.Source,
		Category:     appCfg.Category,
		Sinks:        []pipeline.EventSink{pipeline.LogSink{}},
		Matcher:      pipeline.NewKeywordMatcher(appCfg.Keywords, matchMode),
		HistoryLimit: appCfg.HistoryLimit,
	}

	if appCfg.HistoryDB != "" {
		db, err := database.Open(appCfg.HistoryDB)
		if err != nil {
			slog.Warn("History archive unavailable, continuing without it", "path", appCfg.HistoryDB, "error", err)
		} else {
			defer db.Close()
			opts.Archive = database.NewArchiveRepository(db)
		}
	}

	fetcher := feed.NewFetcher(&http.Client{}, appCfg.UserAgent)
	p := pipeline.New(sources, fetcher, store.New(appCfg.StorePath), opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appCfg.Interval > 0 {
		return runScheduled(ctx, p, time.Duration(appCfg.Interval)*time.Second, stdout)
	}

	result, err := p.Run(ctx)
	if err != nil {
		return exitCode(err)
	}

	if err := report.Write(stdout, result); err != nil {
		slog.Error("Failed to write summary", "error", err)
	}

	return exitOK
}

// runScheduled collects on every interval until a signal arrives. A
// configuration error stops the loop since every later run would repeat it.
func runScheduled(ctx context.Context, p *pipeline.Pipeline, interval time.Duration, stdout io.Writer) int {
	fatal := make(chan error, 1)

	s := scheduler.NewScheduler(ctx, p, interval, func(result *pipeline.Result, err error) {
		if err != nil {
			if errors.Is(err, feed.ErrConfig) {
				select {
				case fatal <- err:
				default:
				}
			}
			return
		}
		if err := report.Write(stdout, result); err != nil {
			slog.Error("Failed to write summary", "error", err)
		}
	})

	slog.Info("Collector running", "interval", interval)
	s.Start()

	code := exitOK
	select {
	case <-s.Done():
		slog.Info("Shutting down collector")
	case err := <-fatal:
		code = exitCode(err)
	}

	s.Stop()
	return code
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		slog.Info("Collection interrupted, store left unchanged")
		return exitFailure
	case errors.Is(err, feed.ErrConfig):
		slog.Error("Invalid configuration", "error", err)
		return exitConfig
	case errors.Is(err, store.ErrIO):
		slog.Error("Store failure", "error", err)
		return exitFailure
	default:
		slog.Error("Collection failed", "error", err)
		return exitFailure
	}
}
