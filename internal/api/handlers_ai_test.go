package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upstream(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func postJSON(t *testing.T, srv http.Handler, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestAIComplete(t *testing.T) {
	cfg := testConfig()
	cfg.AnthropicBaseURL = upstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-user", r.Header.Get("x-api-key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 1024, body["max_tokens"])
		w.Write([]byte(`{"content":[{"type":"text","text":"Rewritten bullet"}]}`))
	})
	srv := newTestServer(t, cfg)

	rec := postJSON(t, srv, "/api/ai/complete", map[string]any{
		"provider": "anthropic", "apiKey": "sk-user", "model": "claude", "prompt": "Improve", "maxTokens": 1024,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"text":"Rewritten bullet"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	assert.Contains(t, rec.Body.String(), `"anthropic":1`)
}

func TestAIComplete_UpstreamStatusPassedThrough(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIBaseURL = upstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Incorrect API key"}}`, http.StatusUnauthorized)
	})
	srv := newTestServer(t, cfg)

	rec := postJSON(t, srv, "/api/ai/complete", map[string]any{
		"provider": "openai", "apiKey": "bad", "model": "gpt", "prompt": "x",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect API key")
}

func TestAIComplete_BadRequests(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := postJSON(t, srv, "/api/ai/complete", map[string]any{
		"provider": "mistral", "model": "m", "prompt": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown provider: mistral")

	rec = postJSON(t, srv, "/api/ai/complete", map[string]any{"provider": "openai"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/complete", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAIComplete_UpstreamUnreachable(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := postJSON(t, srv, "/api/ai/complete", map[string]any{
		"provider": "gemini", "apiKey": "k", "model": "gemini-pro", "prompt": "x",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "key=k")
}

func TestProxy(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIBaseURL = upstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-browser", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Origin"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"model":"gpt"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"cmpl"}`))
	})
	cfg.TailorAPIKey = "service-key"
	srv := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/proxy/openai/v1/chat/completions", bytes.NewBufferString(`{"model":"gpt"}`))
	req.Header.Set("Authorization", "Bearer sk-browser")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":"cmpl"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProxy_UnknownProvider(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proxy/gemini/v1/models", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown provider: gemini")
}

func TestProxy_UpstreamDown(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proxy/anthropic/v1/models", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
