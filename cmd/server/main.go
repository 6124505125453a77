package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/newsflow/app/api"
	"github.com/lysyi3m/newsflow/app/cfg"
	"github.com/lysyi3m/newsflow/app/database"
	"github.com/lysyi3m/newsflow/app/feed"
	"github.com/lysyi3m/newsflow/app/store"
)

func main() {
	appCfg, err := cfg.LoadServer(os.Args[1:])
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(2)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	cfg.SetupLogging(appCfg.Debug)
	slog.Info("Starting NewsFlow server", "version", appCfg.Version)

	sources, err := feed.NewSourceLoader(appCfg.SourcesPath, 0, 0).Run()
	if err != nil {
		slog.Error("Failed to load sources", "error", err)
		os.Exit(2)
	}
	slog.Info("Sources loaded", "count", len(sources))

	var archive database.ArchiveRepositoryInterface
	if appCfg.HistoryDB != "" {
		db, err := database.Open(appCfg.HistoryDB)
		if err != nil {
			slog.Error("Failed to open history database", "path", appCfg.HistoryDB, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		archive = database.NewArchiveRepository(db)
	}

	apiHandler := api.NewHandler(store.New(appCfg.StorePath), sources, archive, appCfg.Version, appCfg.BaseUrl)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "store", appCfg.StorePath)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("NewsFlow server shutdown complete")
}
