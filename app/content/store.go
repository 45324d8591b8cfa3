package content

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lysyi3m/feed-rewriter/app/feed"
)

// ErrDocumentExists is returned when the target file is already present.
var ErrDocumentExists = errors.New("document already exists")

type MatchMode string

const (
	// MatchSubstring treats a document as processed when the URL appears
	// anywhere inside its header block.
	MatchSubstring MatchMode = "substring"
	// MatchExact compares the parsed source_url field.
	MatchExact MatchMode = "exact"
)

// Store is the directory of generated markdown documents.
type Store struct {
	dir  string
	mode MatchMode
}

func NewStore(dir string, mode MatchMode) *Store {
	if mode == "" {
		mode = MatchSubstring
	}
	return &Store{dir: dir, mode: mode}
}

func (s *Store) Dir() string {
	return s.dir
}

// AlreadyProcessed reports whether any top-level document's front matter
// references sourceURL. Unreadable documents are skipped.
func (s *Store) AlreadyProcessed(sourceURL string) (bool, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to list documents: %w", err)
	}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || filepath.Ext(dirEntry.Name()) != ".md" {
			continue
		}

		file := filepath.Join(s.dir, dirEntry.Name())
		data, err := os.ReadFile(file)
		if err != nil {
			slog.Debug("Skipping unreadable document", "path", file, "error", err)
			continue
		}

		if s.matches(string(data), sourceURL, file) {
			slog.Debug("Found processed document", "path", file, "source_url", sourceURL)
			return true, nil
		}
	}

	return false, nil
}

func (s *Store) matches(doc, sourceURL, file string) bool {
	if s.mode == MatchExact {
		fm, err := ParseFrontMatter(doc)
		if err == nil {
			return fm.SourceURL == sourceURL
		}
		slog.Debug("Front matter not parseable, matching header text", "path", file, "error", err)
	}

	header, ok := headerRegion(doc)
	if !ok {
		return false
	}
	return strings.Contains(header, sourceURL) || strings.Contains(header, EscapeQuotes(sourceURL))
}

// Write stores a new document for entry and returns its path. Existing files
// are never overwritten.
func (s *Store) Write(entry feed.Entry, body string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create content directory: %w", err)
	}

	path := filepath.Join(s.dir, Filename(entry))
	fm := FrontMatter{
		Title:     entry.Title,
		SourceURL: entry.Link,
		SourceID:  entry.ID,
		Date:      entry.Updated,
		Author:    entry.Author,
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrDocumentExists, path)
		}
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	if _, err := file.WriteString(fm.Render() + body); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	return path, nil
}
