// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dgallion1/themeindex/internal/content"
	"github.com/dgallion1/themeindex/internal/document"
	"github.com/dgallion1/themeindex/internal/parser"
	"github.com/dgallion1/themeindex/internal/segment"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"THEMEINDEX_API_KEY"`

	// Catalog. An empty URL selects the in-memory catalog.
	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Search analytics. An empty URL selects the in-memory recorder.
	RedisURL string `env:"REDIS_URL"`

	// Source document storage
	BlobBaseURL string `env:"BLOB_BASE_URL"`
	BlobAPIKey  string `env:"BLOB_API_KEY"`

	// Summaries and quizzes. An empty key disables them.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5-20250929"`

	// Worker pool
	WorkerCount  int `env:"WORKER_COUNT" envDefault:"4"`
	MaxQueueSize int `env:"MAX_QUEUE_SIZE" envDefault:"100"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"`

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`

	// Segmentation
	FontSamplePages int     `env:"FONT_SAMPLE_PAGES" envDefault:"30"`
	HeadingFactor   float64 `env:"HEADING_FACTOR" envDefault:"1.15"`
	HeadingTopLines int     `env:"HEADING_TOP_LINES" envDefault:"10"`
	HeadingMinGap   int     `env:"HEADING_MIN_GAP" envDefault:"2"`
	StrictHeadings  bool    `env:"STRICT_HEADINGS" envDefault:"false"`

	// Theme bodies
	MaxContentChars int `env:"MAX_CONTENT_CHARS" envDefault:"8000"`
	MinContentChars int `env:"MIN_CONTENT_CHARS" envDefault:"50"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads envFiles (default ".env") when present, then parses the
// environment. Variables already set win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 8000
	}
	if cfg.MinContentChars <= 0 {
		cfg.MinContentChars = 50
	}
	return cfg, nil
}

// Validate checks settings the server cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("THEMEINDEX_API_KEY is required")
	}
	if c.MinContentChars >= c.MaxContentChars {
		return fmt.Errorf("MIN_CONTENT_CHARS (%d) must be below MAX_CONTENT_CHARS (%d)", c.MinContentChars, c.MaxContentChars)
	}
	return nil
}

// Segment returns the cascade settings.
func (c Config) Segment() segment.Config {
	base := segment.DefaultConfig()
	if c.StrictHeadings {
		base = segment.StrictConfig()
	}
	if c.FontSamplePages > 0 {
		base.SampleSize = c.FontSamplePages
	}
	if c.HeadingFactor > 0 {
		base.HeadingFactor = c.HeadingFactor
	}
	// Explicit line and gap settings only apply to the default classifier;
	// the strict preset keeps its own.
	if !c.StrictHeadings {
		if c.HeadingTopLines > 0 {
			base.TopLines = c.HeadingTopLines
		}
		if c.HeadingMinGap > 0 {
			base.MinGap = c.HeadingMinGap
		}
	}
	return base
}

// Gate returns the theme body quality gate.
func (c Config) Gate() content.Gate {
	return content.Gate{MaxChars: c.MaxContentChars, MinChars: c.MinContentChars}
}

// Parser returns the document reader options.
func (c Config) Parser() parser.Options {
	return parser.Options{
		FallbackPdftotext: c.PDFFallbackPdftotext,
		Paginate:          document.DefaultPaginateOptions(),
	}
}
