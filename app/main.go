package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/feedunify/app/api"
	"github.com/lysyi3m/feedunify/app/cfg"
	"github.com/lysyi3m/feedunify/app/database"
	"github.com/lysyi3m/feedunify/app/feed"
	"github.com/lysyi3m/feedunify/app/oneshot"
	"github.com/lysyi3m/feedunify/app/sources"
	"github.com/lysyi3m/feedunify/app/tasks"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if appCfg == nil {
		return
	}

	setupLogging(appCfg)

	if appCfg.OneShot() {
		if err := oneshot.Run(appCfg.Files, appCfg.Format, os.Stdout); err != nil {
			slog.Error("One-shot parsing failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(appCfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(c *cfg.Cfg) {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if c.LogFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func serve(c *cfg.Cfg) error {
	slog.Info("Starting feedunify", "version", c.Version)

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Database ready", "path", c.DBPath)

	registry := sources.NewRegistry(c.SourcesDir)
	if err := registry.Run(); err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	slog.Info("Sources loaded", "dir", c.SourcesDir, "count", registry.Count())

	feedRepo := database.NewFeedRepository(db)
	entryRepo := database.NewEntryRepository(db)
	httpClient := &http.Client{Timeout: 60 * time.Second}

	scheduler := tasks.NewScheduler(registry, feedRepo, entryRepo, httpClient, feed.NewFilterer(), feed.NewContentExtractor())
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "workers", c.WorkerCount, "interval", c.SchedulerInterval)

	handler := api.NewHandler(registry, feedRepo, entryRepo, scheduler, c.MaxParseSize)
	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler, c.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
	return nil
}
