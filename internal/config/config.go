package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8091"`

	// Auth for this service's API.
	ServiceAPIKey string `env:"PAGEADAPT_API_KEY"`

	// Preference store connection.
	PrefsURL    string `env:"PREFS_URL" envDefault:"http://localhost:8080"`
	PrefsAPIKey string `env:"PREFS_API_KEY"`

	// Generative API.
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	GeminiModel    string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiEndpoint string `env:"GEMINI_ENDPOINT"`

	// Worker pool.
	WorkerCount  int `env:"WORKER_COUNT" envDefault:"4"`
	MaxQueueSize int `env:"MAX_QUEUE_SIZE" envDefault:"100"`

	// Chunking.
	TokenBudget int `env:"TOKEN_BUDGET" envDefault:"1500"`

	// Page upload limit.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"` // 5MB

	// Inline image encoding.
	InlineImages            bool          `env:"INLINE_IMAGES" envDefault:"true"`
	MaxInlineImageBytes     int64         `env:"MAX_INLINE_IMAGE_BYTES" envDefault:"1048576"`
	ImageFetchTimeout       time.Duration `env:"IMAGE_FETCH_TIMEOUT" envDefault:"10s"`
	MaxConcurrentImageFetch int           `env:"MAX_CONCURRENT_IMAGE_FETCH" envDefault:"4"`

	// Cycle state.
	CycleTTL time.Duration `env:"CYCLE_TTL" envDefault:"1h"`

	// Optional neurotype policy overlay file.
	PolicyFile string `env:"POLICY_FILE"`

	// Model latency stats window.
	StatsWindow time.Duration `env:"STATS_WINDOW" envDefault:"1h"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = 1500
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5242880
	}
	if cfg.MaxInlineImageBytes <= 0 {
		cfg.MaxInlineImageBytes = 1048576
	}
	if cfg.ImageFetchTimeout <= 0 {
		cfg.ImageFetchTimeout = 10 * time.Second
	}
	if cfg.MaxConcurrentImageFetch <= 0 {
		cfg.MaxConcurrentImageFetch = 4
	}
	if cfg.CycleTTL <= 0 {
		cfg.CycleTTL = time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.ServiceAPIKey == "" {
		return fmt.Errorf("PAGEADAPT_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}
