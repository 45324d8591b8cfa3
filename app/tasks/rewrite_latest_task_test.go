package tasks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/feed-rewriter/app/content"
	"github.com/lysyi3m/feed-rewriter/app/feed"
	"github.com/lysyi3m/feed-rewriter/app/journal"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Newest "quoted" story</title>
    <link rel="alternate" href="https://example.com/newest"/>
    <id>https://example.com/?p=2</id>
    <updated>2026-02-21T08:10:42+00:00</updated>
    <author><name>Reporter</name></author>
    <summary>&lt;p&gt;Newest body&lt;/p&gt;</summary>
  </entry>
  <entry>
    <title>Older story</title>
    <link rel="alternate" href="https://example.com/older"/>
    <updated>2026-02-20T08:00:00+00:00</updated>
  </entry>
</feed>`

// MockRewriter records calls and returns a fixed body
type MockRewriter struct {
	calls  int
	style  string
	title  string
	body   string
	result string
	err    error
}

func (m *MockRewriter) Run(ctx context.Context, style, title, body string) (string, error) {
	m.calls++
	m.style, m.title, m.body = style, title, body
	return m.result, m.err
}

// MockRecorder keeps recorded runs in memory
type MockRecorder struct {
	runs []journal.Run
}

func (m *MockRecorder) Record(run journal.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTask(server *httptest.Server, dir string, rewriter Rewriter, recorder RunRecorder) *RewriteLatestTask {
	fetcher := feed.NewFetcher(server.Client(), "test", time.Second)
	store := content.NewStore(dir, content.MatchSubstring)
	return NewRewriteLatestTask(server.URL, fetcher, feed.NewParser(), nil, store, rewriter, recorder, "STYLE")
}

func listDocuments(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestRewriteLatestWritesNewestEntry(t *testing.T) {
	server := serveFeed(t, testFeed)
	dir := filepath.Join(t.TempDir(), "content")
	rewriter := &MockRewriter{result: "## Rewritten"}
	recorder := &MockRecorder{}

	result, err := newTask(server, dir, rewriter, recorder).Execute(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Outcome != OutcomeWritten {
		t.Errorf("Expected outcome '%s', got '%s'", OutcomeWritten, result.Outcome)
	}
	if filepath.Base(result.Path) != "2026-02-21-newest-quoted-story.md" {
		t.Errorf("Expected dated slug filename, got '%s'", result.Path)
	}
	if rewriter.style != "STYLE" || rewriter.title != `Newest "quoted" story` || rewriter.body != "Newest body" {
		t.Errorf("Unexpected rewriter input: style=%q title=%q body=%q", rewriter.style, rewriter.title, rewriter.body)
	}

	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatal(err)
	}
	fm, err := content.ParseFrontMatter(string(data))
	if err != nil {
		t.Fatal(err)
	}
	if fm.Title != `Newest "quoted" story` || fm.SourceURL != "https://example.com/newest" || fm.SourceID != "https://example.com/?p=2" {
		t.Errorf("Unexpected front matter: %+v", fm)
	}
	if !strings.HasSuffix(string(data), "---\n\n## Rewritten") {
		t.Errorf("Expected body after blank line, got:\n%s", data)
	}

	if len(recorder.runs) != 1 || recorder.runs[0].Outcome != string(OutcomeWritten) {
		t.Errorf("Expected one written run recorded, got %+v", recorder.runs)
	}
}

func TestRewriteLatestIsIdempotent(t *testing.T) {
	server := serveFeed(t, testFeed)
	dir := t.TempDir()
	rewriter := &MockRewriter{result: "## Rewritten"}

	if _, err := newTask(server, dir, rewriter, nil).Execute(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	result, err := newTask(server, dir, rewriter, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if result.Outcome != OutcomeAlreadyProcessed {
		t.Errorf("Expected outcome '%s', got '%s'", OutcomeAlreadyProcessed, result.Outcome)
	}
	if rewriter.calls != 1 {
		t.Errorf("Expected rewriter to be called once, got %d", rewriter.calls)
	}
	if docs := listDocuments(t, dir); len(docs) != 1 {
		t.Errorf("Expected 1 document after two runs, got %d", len(docs))
	}
}

func TestRewriteLatestEmptyFeed(t *testing.T) {
	server := serveFeed(t, `<feed xmlns="http://www.w3.org/2005/Atom"><title>Empty</title></feed>`)
	dir := t.TempDir()
	rewriter := &MockRewriter{result: "unused"}

	result, err := newTask(server, dir, rewriter, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Outcome != OutcomeEmptyFeed {
		t.Errorf("Expected outcome '%s', got '%s'", OutcomeEmptyFeed, result.Outcome)
	}
	if rewriter.calls != 0 {
		t.Errorf("Expected no rewrite for empty feed, got %d calls", rewriter.calls)
	}
}

func TestRewriteLatestRewriteFailureWritesNothing(t *testing.T) {
	server := serveFeed(t, testFeed)
	dir := t.TempDir()
	rewriter := &MockRewriter{err: errors.New("service unavailable")}
	recorder := &MockRecorder{}

	result, err := newTask(server, dir, rewriter, recorder).Execute(context.Background())
	if err == nil {
		t.Fatal("Expected error when rewrite fails")
	}
	if result.Outcome != OutcomeFailed {
		t.Errorf("Expected outcome '%s', got '%s'", OutcomeFailed, result.Outcome)
	}
	if docs := listDocuments(t, dir); len(docs) != 0 {
		t.Errorf("Expected no documents after failed rewrite, got %v", docs)
	}
	if len(recorder.runs) != 1 || !strings.Contains(recorder.runs[0].Error, "service unavailable") {
		t.Errorf("Expected failed run with error recorded, got %+v", recorder.runs)
	}
}

func TestRewriteLatestMalformedFeed(t *testing.T) {
	server := serveFeed(t, `<feed><entry><title>broken</feed>`)
	rewriter := &MockRewriter{result: "unused"}

	if _, err := newTask(server, t.TempDir(), rewriter, nil).Execute(context.Background()); err == nil {
		t.Error("Expected error for malformed feed")
	}
	if rewriter.calls != 0 {
		t.Errorf("Expected no rewrite for malformed feed, got %d calls", rewriter.calls)
	}
}

func TestRewriteLatestFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTask(server, t.TempDir(), &MockRewriter{}, nil).Execute(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to fetch feed") {
		t.Errorf("Expected fetch error, got: %v", err)
	}
}

func TestRewriteLatestExtractsArticlePage(t *testing.T) {
	paragraph := "<p>The full article page has considerably more detail than the feed summary. " +
		"Readers get background, quotes from the people involved, and a longer look at the consequences, " +
		"all of which the short summary in the feed leaves out entirely.</p>\n"
	article := "<html><head><title>Page</title></head><body><article>\n" +
		strings.Repeat(paragraph, 4) + "</article></body></html>"

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.ReplaceAll(testFeed, "https://example.com/newest", server.URL+"/article")))
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(article))
	})

	fetcher := feed.NewFetcher(server.Client(), "test", time.Second)
	rewriter := &MockRewriter{result: "## Rewritten"}
	task := NewRewriteLatestTask(server.URL+"/feed", fetcher, feed.NewParser(), feed.NewContentExtractor(),
		content.NewStore(t.TempDir(), content.MatchSubstring), rewriter, nil, "STYLE")

	if _, err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(rewriter.body, "considerably more detail") {
		t.Errorf("Expected extracted page text as body, got '%s'", rewriter.body)
	}
}

func TestRewriteLatestRecordsToJournal(t *testing.T) {
	server := serveFeed(t, testFeed)
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	task := newTask(server, t.TempDir(), &MockRewriter{result: "## Rewritten"}, j)
	if _, err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	runs, err := j.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 journal run, got %d", len(runs))
	}
	if runs[0].ID != task.GetID() || runs[0].SourceURL != "https://example.com/newest" {
		t.Errorf("Unexpected journal run: %+v", runs[0])
	}
}

func TestNewTaskAssignsUniqueIDs(t *testing.T) {
	first := NewTask(TaskTypeRewriteLatest, "https://example.com/feed")
	second := NewTask(TaskTypeRewriteLatest, "https://example.com/feed")

	if first.ID == "" || first.ID == second.ID {
		t.Errorf("Expected distinct non-empty ids, got '%s' and '%s'", first.ID, second.ID)
	}
	if first.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}
}
