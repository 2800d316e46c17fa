package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Output    OutputConfig
	LLM       LLMConfig
	DB        DBConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls page fetching during extraction runs.
type FetchConfig struct {
	// PageTimeout is the deadline for one page fetch.
	PageTimeout time.Duration // default: 15s

	// Delay is the mandatory pause between page fetches (target-site
	// politeness, matches the per-site download delay of the strategies).
	Delay time.Duration // default: 1s

	// Concurrency bounds simultaneous page fetches across all runs.
	Concurrency int // default: 4

	// MaxPages is the per-run page fetch budget.
	MaxPages int // default: 30

	// RunTimeout is the hard ceiling on one extraction run.
	RunTimeout time.Duration // default: 3m

	// ProbeTimeout is the URL validation probe deadline.
	ProbeTimeout time.Duration // default: 5s

	// ProbeRetryTimeout is the longer deadline for the single retry after a
	// probe timeout.
	ProbeRetryTimeout time.Duration // default: 20s
}

// AuthConfig controls bearer-token authentication.
type AuthConfig struct {
	// Enabled toggles token authentication.
	Enabled bool // default: true

	// Tokens is the list of accepted user tokens (token identifies the user).
	Tokens []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10
}

// OutputConfig controls artifact output.
type OutputConfig struct {
	// Dir is where output artifacts are written.
	Dir string // default: "scraped_data"

	// PreviewItems is how many records the chat preview shows.
	PreviewItems int // default: 5
}

// LLMConfig controls the language-model collaborator.
type LLMConfig struct {
	// BaseURL is an OpenAI-compatible API base, e.g. "https://api.groq.com/openai/v1".
	BaseURL string

	// Model is the chat model name.
	Model string // default: "llama-3.3-70b-versatile"

	// APIKey authenticates against the provider.
	APIKey string

	// MaxTokens caps the completion length.
	MaxTokens int // default: 4096
}

// DBConfig controls the chat persistence store.
type DBConfig struct {
	// URL is the Postgres connection string.
	URL string // default: "postgres://postgres@localhost:5432/scrapechat"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SCRAPECHAT_HOST", "0.0.0.0"),
			Port: envIntOr("SCRAPECHAT_PORT", 8080),
			Mode: envOr("SCRAPECHAT_MODE", "release"),
		},
		Fetch: FetchConfig{
			PageTimeout:       envDurationOr("SCRAPECHAT_PAGE_TIMEOUT", 15*time.Second),
			Delay:             envDurationOr("SCRAPECHAT_FETCH_DELAY", time.Second),
			Concurrency:       envIntOr("SCRAPECHAT_FETCH_CONCURRENCY", 4),
			MaxPages:          envIntOr("SCRAPECHAT_MAX_PAGES", 30),
			RunTimeout:        envDurationOr("SCRAPECHAT_RUN_TIMEOUT", 3*time.Minute),
			ProbeTimeout:      envDurationOr("SCRAPECHAT_PROBE_TIMEOUT", 5*time.Second),
			ProbeRetryTimeout: envDurationOr("SCRAPECHAT_PROBE_RETRY_TIMEOUT", 20*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SCRAPECHAT_AUTH_ENABLED", true),
			Tokens:  envSliceOr("SCRAPECHAT_TOKENS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SCRAPECHAT_RATE_RPS", 5.0),
			Burst:             envIntOr("SCRAPECHAT_RATE_BURST", 10),
		},
		Output: OutputConfig{
			Dir:          envOr("SCRAPECHAT_OUTPUT_DIR", "scraped_data"),
			PreviewItems: envIntOr("SCRAPECHAT_PREVIEW_ITEMS", 5),
		},
		LLM: LLMConfig{
			BaseURL:   envOr("SCRAPECHAT_LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:     envOr("SCRAPECHAT_LLM_MODEL", "llama-3.3-70b-versatile"),
			APIKey:    os.Getenv("SCRAPECHAT_LLM_API_KEY"),
			MaxTokens: envIntOr("SCRAPECHAT_LLM_MAX_TOKENS", 4096),
		},
		DB: DBConfig{
			URL: envOr("SCRAPECHAT_DB_URL", "postgres://postgres@localhost:5432/scrapechat"),
		},
		Log: LogConfig{
			Level:  envOr("SCRAPECHAT_LOG_LEVEL", "info"),
			Format: envOr("SCRAPECHAT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
