package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

// ErrMissingAPIKey is returned when neither credential variable is set.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY (or OPEN_ROUTER_API_KEY) not set")

// fallbackAPIKeyEnv is consulted when OPENROUTER_API_KEY is empty.
const fallbackAPIKeyEnv = "OPEN_ROUTER_API_KEY"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Feed and output
	FeedURL    string `long:"feed-url" env:"FEED_URL" default:"https://www.theverge.com/rss/index.xml" description:"Syndication feed to take the newest article from"`
	ContentDir string `long:"content-dir" env:"CONTENT_DIR" default:"./content" description:"Directory holding generated markdown documents"`
	StylePath  string `long:"style" env:"STYLE_PATH" default:"./style.md" description:"Style guide passed to the generation service"`

	// Generation service
	APIKey         string `long:"api-key" env:"OPENROUTER_API_KEY" description:"Generation service API key (falls back to OPEN_ROUTER_API_KEY)"`
	BaseURL        string `long:"base-url" env:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1" description:"OpenAI-compatible API base URL"`
	Model          string `long:"model" env:"OPENROUTER_MODEL" default:"stepfun/step-3.5-flash:free" description:"Model used for rewriting"`
	Referer        string `long:"referer" env:"OPENROUTER_REFERER" default:"https://github.com/rssgit" description:"HTTP-Referer sent with generation requests"`
	RewriteTimeout int    `long:"rewrite-timeout" env:"REWRITE_TIMEOUT" default:"120" description:"Generation request timeout in seconds"`

	// Processing
	FeedTimeout    int    `long:"feed-timeout" env:"FEED_TIMEOUT" default:"15" description:"Feed fetch timeout in seconds"`
	ExtractContent bool   `long:"extract-content" env:"EXTRACT_CONTENT" description:"Fetch the article page and use its readable text as the body"`
	DedupMode      string `long:"dedup-mode" env:"DEDUP_MODE" default:"substring" choice:"substring" choice:"exact" description:"How existing front matter is matched against the article URL"`
	JournalPath    string `long:"journal" env:"JOURNAL_PATH" description:"SQLite file recording run outcomes (disabled when empty)"`
	EnvFile        string `long:"env-file" env:"ENV_FILE" default:".env" description:"Optional dotenv file loaded before parsing"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Feed Rewriter/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses args and the environment. It returns nil, nil when help was
// requested.
func Load(args []string) (*Cfg, error) {
	loadEnvFile(args)

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		FeedURL:        raw.FeedURL,
		ContentDir:     raw.ContentDir,
		StylePath:      raw.StylePath,
		APIKey:         cmp.Or(raw.APIKey, os.Getenv(fallbackAPIKeyEnv)),
		BaseURL:        raw.BaseURL,
		Model:          raw.Model,
		Referer:        raw.Referer,
		RewriteTimeout: seconds(raw.RewriteTimeout, 120),
		FeedTimeout:    seconds(raw.FeedTimeout, 15),
		ExtractContent: raw.ExtractContent,
		DedupMode:      raw.DedupMode,
		JournalPath:    raw.JournalPath,
		UserAgent:      raw.UserAgent,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return cfg, nil
}

// loadEnvFile applies the dotenv file before flag parsing so its values act
// as environment defaults. Variables already set win; a missing file is fine.
func loadEnvFile(args []string) {
	path := cmp.Or(os.Getenv("ENV_FILE"), ".env")
	for i, arg := range args {
		if arg == "--env-file" && i+1 < len(args) {
			path = args[i+1]
		} else if value, ok := strings.CutPrefix(arg, "--env-file="); ok {
			path = value
		}
	}

	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", path, err)
	}
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
