package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/feed-rewriter/app/content"
	"github.com/lysyi3m/feed-rewriter/app/feed"
	"github.com/lysyi3m/feed-rewriter/app/journal"
)

type Outcome string

const (
	OutcomeWritten          Outcome = "written"
	OutcomeEmptyFeed        Outcome = "empty_feed"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeFailed           Outcome = "failed"
)

type Result struct {
	Outcome Outcome
	Entry   *feed.Entry
	Path    string
}

// RewriteLatestTask takes the newest feed entry through rewrite and storage.
// It handles at most one article per execution.
type RewriteLatestTask struct {
	Task
	fetcher          *feed.Fetcher
	parser           *feed.Parser
	contentExtractor *feed.ContentExtractor
	store            *content.Store
	rewriter         Rewriter
	recorder         RunRecorder
	style            string
}

// NewRewriteLatestTask builds the task. contentExtractor and recorder may be
// nil to disable page extraction and journaling.
func NewRewriteLatestTask(feedURL string, fetcher *feed.Fetcher, parser *feed.Parser, contentExtractor *feed.ContentExtractor, store *content.Store, rewriter Rewriter, recorder RunRecorder, style string) *RewriteLatestTask {
	return &RewriteLatestTask{
		Task:             NewTask(TaskTypeRewriteLatest, feedURL),
		fetcher:          fetcher,
		parser:           parser,
		contentExtractor: contentExtractor,
		store:            store,
		rewriter:         rewriter,
		recorder:         recorder,
		style:            style,
	}
}

func (t *RewriteLatestTask) Execute(ctx context.Context) (Result, error) {
	t.Start()

	result, err := t.execute(ctx)
	if err != nil {
		result.Outcome = OutcomeFailed
	}
	t.record(result, err)

	if err == nil {
		slog.Info("Task completed",
			"type", t.GetType(),
			"id", t.GetID(),
			"outcome", result.Outcome,
			"duration", t.GetDuration())
	}

	return result, err
}

func (t *RewriteLatestTask) execute(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	slog.Info("Fetching feed", "url", t.FeedURL)
	data, err := t.fetcher.Run(ctx, t.FeedURL)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch feed: %w", err)
	}

	entries, err := t.parser.Run(data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse feed: %w", err)
	}

	if len(entries) == 0 {
		slog.Info("No entries in feed", "url", t.FeedURL)
		return Result{Outcome: OutcomeEmptyFeed}, nil
	}

	entry := entries[0]
	result := Result{Entry: &entry}

	processed, err := t.store.AlreadyProcessed(entry.Link)
	if err != nil {
		return result, fmt.Errorf("failed to check processed documents: %w", err)
	}
	if processed {
		slog.Info("Latest article already processed", "link", entry.Link)
		result.Outcome = OutcomeAlreadyProcessed
		return result, nil
	}

	body := t.articleBody(ctx, entry)

	slog.Info("Rewriting", "title", shorten(entry.Title, 60), "body_length", len(body))
	rewritten, err := t.rewriter.Run(ctx, t.style, entry.Title, body)
	if err != nil {
		return result, fmt.Errorf("failed to rewrite article: %w", err)
	}

	path, err := t.store.Write(entry, rewritten)
	if err != nil {
		return result, fmt.Errorf("failed to store article: %w", err)
	}
	slog.Info("Wrote", "path", path)

	result.Outcome = OutcomeWritten
	result.Path = path
	return result, nil
}

// articleBody returns the readable text of the article page when extraction
// is enabled and succeeds, and the feed body otherwise.
func (t *RewriteLatestTask) articleBody(ctx context.Context, entry feed.Entry) string {
	if t.contentExtractor == nil || entry.Link == "" {
		return entry.BodyPlain
	}

	page, err := t.fetcher.FetchPage(ctx, entry.Link)
	if err != nil {
		slog.Warn("Failed to fetch article page, using feed body", "url", entry.Link, "error", err)
		return entry.BodyPlain
	}

	text, err := t.contentExtractor.Run(page, entry.Link)
	if err != nil {
		slog.Warn("Failed to extract article content, using feed body", "url", entry.Link, "error", err)
		return entry.BodyPlain
	}
	return text
}

func (t *RewriteLatestTask) record(result Result, runErr error) {
	if t.recorder == nil {
		return
	}

	run := journal.Run{
		ID:         t.GetID(),
		StartedAt:  *t.StartedAt,
		FinishedAt: time.Now(),
		FeedURL:    t.FeedURL,
		Outcome:    string(result.Outcome),
		Path:       result.Path,
	}
	if result.Entry != nil {
		run.EntryID = result.Entry.ID
		run.SourceURL = result.Entry.Link
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := t.recorder.Record(run); err != nil {
		slog.Error("Failed to record run", "id", run.ID, "error", err)
	}
}

func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
