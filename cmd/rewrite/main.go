package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lysyi3m/feed-rewriter/app/cfg"
	"github.com/lysyi3m/feed-rewriter/app/content"
	"github.com/lysyi3m/feed-rewriter/app/feed"
	"github.com/lysyi3m/feed-rewriter/app/journal"
	"github.com/lysyi3m/feed-rewriter/app/rewriter"
	"github.com/lysyi3m/feed-rewriter/app/tasks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if appCfg == nil {
		// Help was shown
		return nil
	}

	setupLogger(appCfg.Debug)

	slog.Debug("Starting feed rewriter", "version", appCfg.Version, "feed", appCfg.FeedURL)

	style, err := os.ReadFile(appCfg.StylePath)
	if err != nil {
		return fmt.Errorf("failed to read style guide: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{}

	var contentExtractor *feed.ContentExtractor
	if appCfg.ExtractContent {
		contentExtractor = feed.NewContentExtractor()
	}

	var recorder tasks.RunRecorder
	if appCfg.JournalPath != "" {
		j, err := journal.Open(appCfg.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer j.Close()
		recorder = j
	}

	store := content.NewStore(appCfg.ContentDir, content.MatchMode(appCfg.DedupMode))
	slog.Debug("Using content directory", "dir", store.Dir(), "dedup_mode", appCfg.DedupMode)

	task := tasks.NewRewriteLatestTask(
		appCfg.FeedURL,
		feed.NewFetcher(httpClient, appCfg.UserAgent, appCfg.FeedTimeout),
		feed.NewParser(),
		contentExtractor,
		store,
		rewriter.New(rewriter.Config{
			APIKey:  appCfg.APIKey,
			BaseURL: appCfg.BaseURL,
			Model:   appCfg.Model,
			Referer: appCfg.Referer,
			Timeout: appCfg.RewriteTimeout,
		}),
		recorder,
		string(style),
	)

	_, err = task.Execute(ctx)
	return err
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
