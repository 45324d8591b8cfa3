package rewriter

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "stepfun/step-3.5-flash:free"
	DefaultTimeout     = 120 * time.Second
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.6

	responseSnippetBytes = 500
)

// ErrEmptyResponse is returned when the service answers without any text.
var ErrEmptyResponse = errors.New("empty response from generation service")

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Referer     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// Rewriter restyles articles through an OpenAI-compatible chat completion API.
type Rewriter struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float32
}

func New(cfg Config) *Rewriter {
	timeout := cmp.Or(cfg.Timeout, DefaultTimeout)

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cmp.Or(cfg.BaseURL, DefaultBaseURL)
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			referer: cfg.Referer,
		},
	}

	return &Rewriter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cmp.Or(cfg.Model, DefaultModel),
		timeout:     timeout,
		maxTokens:   cmp.Or(cfg.MaxTokens, DefaultMaxTokens),
		temperature: cmp.Or(cfg.Temperature, DefaultTemperature),
	}
}

// Run returns the article rewritten in the voice of style.
func (r *Rewriter) Run(ctx context.Context, style, title, body string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(timeoutCtx, openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    BuildMessages(style, title, body),
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if content == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, snippet(resp))
	}

	slog.Debug("Generation completed",
		"model", r.model,
		"duration", time.Since(start),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"response_length", len(content))

	return content, nil
}

func snippet(resp openai.ChatCompletionResponse) string {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf("unencodable response: %v", err)
	}
	if len(raw) > responseSnippetBytes {
		raw = raw[:responseSnippetBytes]
	}
	return string(raw)
}

// headerTransport adds the attribution header expected by OpenRouter.
type headerTransport struct {
	base    http.RoundTripper
	referer string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req = req.Clone(req.Context())
		req.Header.Set("HTTP-Referer", t.referer)
	}
	return t.base.RoundTrip(req)
}
