package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider names accepted by Complete.
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Gemini    = "gemini"
)

const (
	defaultMaxTokens = 4096
	anthropicVersion = "2023-06-01"
	maxResponseBytes = 4 << 20
)

// Request is one prompt sent to a provider on the caller's behalf.
type Request struct {
	Provider  string `json:"provider"`
	APIKey    string `json:"apiKey"`
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"maxTokens,omitempty"`
}

// Config holds provider endpoints and call limits.
type Config struct {
	AnthropicURL string
	OpenAIURL    string
	GeminiURL    string
	Timeout      time.Duration
	MaxRetries   int
}

// DefaultConfig points at the public provider endpoints.
func DefaultConfig() Config {
	return Config{
		AnthropicURL: "https://api.anthropic.com",
		OpenAIURL:    "https://api.openai.com",
		GeminiURL:    "https://generativelanguage.googleapis.com",
		Timeout:      120 * time.Second,
		MaxRetries:   MaxRetries,
	}
}

// Client calls provider completion APIs server-side.
type Client struct {
	cfg        Config
	httpClient *http.Client
	stats      *Stats
	log        *slog.Logger
	backoff    func(attempt int) time.Duration
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		stats:   NewStats(time.Hour),
		log:     log,
		backoff: Backoff,
	}
}

// Stats returns the rolling latency record of completion calls.
func (c *Client) Stats() *Stats { return c.stats }

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Complete sends req.Prompt to the provider and returns the generated text.
// Transient failures are retried with backoff.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	switch req.Provider {
	case Anthropic, OpenAI, Gemini:
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	log := c.log.With("provider", req.Provider, "model", req.Model)
	log.Debug("completion request", "prompt_tokens_est", EstimateTokens(req.Prompt), "max_tokens", req.MaxTokens)

	text, elapsed, err := c.completeWithRetries(ctx, req, log)
	if err != nil {
		c.stats.RecordFailure(req.Provider)
		return "", err
	}
	c.stats.Record(req.Provider, elapsed)
	return text, nil
}

// completeWithRetries returns the text and the latency of the attempt that
// produced it.
func (c *Client) completeWithRetries(ctx context.Context, req Request, log *slog.Logger) (string, time.Duration, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt - 1)
			log.Warn("retrying completion", "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(wait):
			}
		}

		start := time.Now()
		text, err := c.completeOnce(ctx, req)
		if err == nil {
			return text, time.Since(start), nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", 0, err
		}
	}
	return "", 0, lastErr
}

func (c *Client) completeOnce(ctx context.Context, req Request) (string, error) {
	switch req.Provider {
	case Anthropic:
		return c.completeAnthropic(ctx, req)
	case OpenAI:
		return c.completeOpenAI(ctx, req)
	default:
		return c.completeGemini(ctx, req)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Client) completeAnthropic(ctx context.Context, req Request) (string, error) {
	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
	}
	headers := http.Header{}
	headers.Set("x-api-key", req.APIKey)
	headers.Set("anthropic-version", anthropicVersion)

	var resp anthropicResponse
	if err := c.postJSON(ctx, c.cfg.AnthropicURL+"/v1/messages", headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}
	return resp.Content[0].Text, nil
}

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) completeOpenAI(ctx context.Context, req Request) (string, error) {
	body := openAIRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: 0.3,
	}
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+req.APIKey)

	var resp openAIResponse
	if err := c.postJSON(ctx, c.cfg.OpenAIURL+"/v1/chat/completions", headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) completeGemini(ctx context.Context, req Request) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.cfg.GeminiURL, url.PathEscape(req.Model), url.QueryEscape(req.APIKey))

	var resp geminiResponse
	if err := c.postJSON(ctx, endpoint, http.Header{}, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// postJSON sends body and decodes a 2xx response into out. 429 and 5xx
// become RetryableError; any other failure status becomes StatusError.
func (c *Client) postJSON(ctx context.Context, endpoint string, headers http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("provider request: %w", redactKey(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w (raw: %s)", err, truncate(string(respBody), 200))
	}
	return nil
}

// redactKey strips the query string from URL errors so a Gemini key
// never reaches logs.
func redactKey(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if i := strings.IndexByte(uerr.URL, '?'); i >= 0 {
		return &url.Error{Op: uerr.Op, URL: uerr.URL[:i], Err: uerr.Err}
	}
	return err
}
