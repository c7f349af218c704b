package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// proxyHeaders are the only request headers forwarded upstream.
var proxyHeaders = []string{
	"Authorization",
	"X-Api-Key",
	"Anthropic-Version",
	"Content-Type",
	"Anthropic-Dangerous-Direct-Browser-Access",
}

// ProxyResponse is an upstream reply passed back to the browser as is.
type ProxyResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Proxy relays browser requests to provider APIs that do not allow CORS.
type Proxy struct {
	targets    map[string]string
	httpClient *http.Client
}

func NewProxy(cfg Config) *Proxy {
	return &Proxy{
		targets: map[string]string{
			Anthropic: strings.TrimRight(cfg.AnthropicURL, "/"),
			OpenAI:    strings.TrimRight(cfg.OpenAIURL, "/"),
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Forward sends the request to provider's base URL joined with path.
// Upstream error statuses are returned in the response, not as errors.
func (p *Proxy) Forward(ctx context.Context, provider, method, path, rawQuery string, header http.Header, body []byte) (*ProxyResponse, error) {
	base, ok := p.targets[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	target := base + "/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create proxy request: %w", err)
	}
	for _, name := range proxyHeaders {
		if v := header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read proxy response: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	return &ProxyResponse{StatusCode: resp.StatusCode, ContentType: ct, Body: respBody}, nil
}

// Close releases resources.
func (p *Proxy) Close() {
	p.httpClient.CloseIdleConnections()
}
