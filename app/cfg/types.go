package cfg

import "time"

type Cfg struct {
	// Feed and output
	FeedURL    string
	ContentDir string
	StylePath  string

	// Generation service
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	RewriteTimeout time.Duration

	// Processing
	FeedTimeout    time.Duration
	ExtractContent bool
	DedupMode      string
	JournalPath    string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
