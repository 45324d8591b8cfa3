package tasks

import (
	"context"

	"github.com/lysyi3m/feed-rewriter/app/journal"
)

// Rewriter produces the restyled markdown body for an article.
type Rewriter interface {
	Run(ctx context.Context, style, title, body string) (string, error)
}

// RunRecorder persists the outcome of a run.
type RunRecorder interface {
	Record(run journal.Run) error
}
