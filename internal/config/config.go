package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/resumetailor/internal/ai"
	"github.com/dgallion1/resumetailor/internal/segment"
)

type Config struct {
	Port string

	// Auth. Empty leaves the document and completion routes open.
	TailorAPIKey string

	// Upload limits
	MaxUploadBytes int64

	// Document cache
	DocTTL          time.Duration
	CleanupInterval time.Duration

	// Batch extraction
	BatchConcurrency int

	// AI providers
	AITimeout        time.Duration
	AIMaxRetries     int
	AnthropicBaseURL string
	OpenAIBaseURL    string
	GeminiBaseURL    string

	// PDF
	PDFFallbackPdftotext bool

	// Optional YAML file with classifier vocabulary.
	ClassifierConfig string
}

func Load() Config {
	defaults := ai.DefaultConfig()
	cfg := Config{
		Port: envOr("PORT", "8000"),

		TailorAPIKey: os.Getenv("TAILOR_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10<<20), // 10MB

		DocTTL:          envDuration("DOC_TTL", 30*time.Minute),
		CleanupInterval: envDuration("DOC_CLEANUP_INTERVAL", 5*time.Minute),

		BatchConcurrency: envInt("BATCH_CONCURRENCY", 4),

		AITimeout:        envDuration("AI_TIMEOUT", defaults.Timeout),
		AIMaxRetries:     envInt("AI_MAX_RETRIES", defaults.MaxRetries),
		AnthropicBaseURL: envOr("ANTHROPIC_BASE_URL", defaults.AnthropicURL),
		OpenAIBaseURL:    envOr("OPENAI_BASE_URL", defaults.OpenAIURL),
		GeminiBaseURL:    envOr("GEMINI_BASE_URL", defaults.GeminiURL),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		ClassifierConfig: os.Getenv("CLASSIFIER_CONFIG"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.DocTTL <= 0 {
		cfg.DocTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = defaults.Timeout
	}
	if cfg.AIMaxRetries < 0 {
		cfg.AIMaxRetries = 0
	}

	return cfg
}

func (c Config) Validate() error {
	for name, raw := range map[string]string{
		"ANTHROPIC_BASE_URL": c.AnthropicBaseURL,
		"OPENAI_BASE_URL":    c.OpenAIBaseURL,
		"GEMINI_BASE_URL":    c.GeminiBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
		}
	}
	if c.ClassifierConfig != "" {
		if _, err := os.Stat(c.ClassifierConfig); err != nil {
			return fmt.Errorf("CLASSIFIER_CONFIG: %w", err)
		}
	}
	return nil
}

// AI returns the provider settings for ai.NewClient and ai.NewProxy.
func (c Config) AI() ai.Config {
	return ai.Config{
		AnthropicURL: c.AnthropicBaseURL,
		OpenAIURL:    c.OpenAIBaseURL,
		GeminiURL:    c.GeminiBaseURL,
		Timeout:      c.AITimeout,
		MaxRetries:   c.AIMaxRetries,
	}
}

// Classifier builds the section classifier, reading CLASSIFIER_CONFIG when set.
func (c Config) Classifier() (*segment.Classifier, error) {
	sc := segment.DefaultConfig()
	if c.ClassifierConfig != "" {
		var err error
		sc, err = segment.LoadConfig(c.ClassifierConfig)
		if err != nil {
			return nil, err
		}
	}
	return segment.New(sc)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
