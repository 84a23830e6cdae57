// Package config holds the service's tuning knobs and loads them from
// flags, MENUSCAN_* environment variables, an optional plain config file
// and a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"

	"github.com/ironsheep/menuscan-mcp/internal/inference"
	"github.com/ironsheep/menuscan-mcp/internal/localize"
	"github.com/ironsheep/menuscan-mcp/internal/ocr"
	"github.com/ironsheep/menuscan-mcp/internal/preload"
	"github.com/ironsheep/menuscan-mcp/internal/progress"
	"github.com/ironsheep/menuscan-mcp/internal/resolve"
	"github.com/ironsheep/menuscan-mcp/internal/scan"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MENUSCAN"

// apiKeyFallbacks are consulted, in order, when no key was configured.
var apiKeyFallbacks = []string{"GEMINI_API_KEY", "API_KEY"}

// Config is the full runtime configuration.
type Config struct {
	APIKey   string `json:"-"`
	Model    string `json:"model"`
	Endpoint string `json:"endpoint"`
	LogLevel string `json:"log_level"`

	MatchThreshold float64 `json:"match_threshold"`
	WholeLineBonus float64 `json:"whole_line_bonus"`
	WholeLineSlack int     `json:"whole_line_slack"`

	PreloadTimeout    time.Duration `json:"preload_timeout"`
	ProgressTick      time.Duration `json:"progress_tick"`
	CompletionDelay   time.Duration `json:"completion_delay"`
	FailureDelay      time.Duration `json:"failure_delay"`
	QuotaFailureDelay time.Duration `json:"quota_failure_delay"`

	OCRLanguages  string `json:"ocr_languages"`
	OCRPreprocess bool   `json:"ocr_preprocess"`

	ThumbnailURL string        `json:"thumbnail_url"`
	HTTPRetries  int           `json:"http_retries"`
	HTTPTimeout  time.Duration `json:"http_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	session := scan.DefaultSessionConfig()
	return Config{
		Model:    inference.DefaultModel,
		Endpoint: inference.DefaultEndpoint,
		LogLevel: "info",

		MatchThreshold: localize.DefaultThreshold,
		WholeLineBonus: localize.DefaultWholeLineBonus,
		WholeLineSlack: localize.DefaultWholeLineSlack,

		PreloadTimeout:    preload.DefaultTimeout,
		ProgressTick:      progress.DefaultTick,
		CompletionDelay:   session.CompletionDelay,
		FailureDelay:      session.FailureDelay,
		QuotaFailureDelay: session.QuotaFailureDelay,

		OCRLanguages:  strings.Join(ocr.DefaultLanguages, "+"),
		OCRPreprocess: true,

		ThumbnailURL: resolve.DefaultThumbnailURL,
		HTTPRetries:  2,
		HTTPTimeout:  60 * time.Second,
	}
}

// RegisterFlags binds every field of c to a flag on fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.APIKey, "api-key", c.APIKey, "inference API key (falls back to GEMINI_API_KEY, API_KEY)")
	fs.StringVar(&c.Model, "model", c.Model, "inference model name")
	fs.StringVar(&c.Endpoint, "endpoint", c.Endpoint, "inference REST endpoint")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: info or debug")

	fs.Float64Var(&c.MatchThreshold, "match-threshold", c.MatchThreshold, "minimum OCR match score (exclusive)")
	fs.Float64Var(&c.WholeLineBonus, "whole-line-bonus", c.WholeLineBonus, "score bonus for near whole-line matches")
	fs.IntVar(&c.WholeLineSlack, "whole-line-slack", c.WholeLineSlack, "length difference below which the whole-line bonus applies")

	fs.DurationVar(&c.PreloadTimeout, "preload-timeout", c.PreloadTimeout, "maximum wait for thumbnail preloading")
	fs.DurationVar(&c.ProgressTick, "progress-tick", c.ProgressTick, "progress update interval during analysis")
	fs.DurationVar(&c.CompletionDelay, "completion-delay", c.CompletionDelay, "delay before reporting completion")
	fs.DurationVar(&c.FailureDelay, "failure-delay", c.FailureDelay, "delay before reporting a failure")
	fs.DurationVar(&c.QuotaFailureDelay, "quota-failure-delay", c.QuotaFailureDelay, "delay before reporting a quota failure")

	fs.StringVar(&c.OCRLanguages, "ocr-languages", c.OCRLanguages, "'+'-joined OCR language hints")
	fs.BoolVar(&c.OCRPreprocess, "ocr-preprocess", c.OCRPreprocess, "grayscale and sharpen images before OCR")

	fs.StringVar(&c.ThumbnailURL, "thumbnail-url", c.ThumbnailURL, "thumbnail lookup template containing {query}")
	fs.IntVar(&c.HTTPRetries, "http-retries", c.HTTPRetries, "retries for inference calls")
	fs.DurationVar(&c.HTTPTimeout, "http-timeout", c.HTTPTimeout, "per-attempt inference timeout")
}

// ParseOptions are the ff options shared by every command.
func ParseOptions() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix(EnvPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithAllowMissingConfigFile(true),
	}
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// NewFlagSet returns a flag set bound to cfg, including the -config file
// flag ParseOptions refers to.
func NewFlagSet(name string, cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	fs.String("config", "", "plain config file (one 'flag value' per line)")
	return fs
}

// Load reads .env, parses args against a fresh flag set and validates the
// result.
func Load(name string, args []string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	fs := NewFlagSet(name, &cfg)
	if err := ff.Parse(fs, args, ParseOptions()...); err != nil {
		return nil, err
	}
	if err := cfg.Complete(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Complete applies fallbacks and validates. Call it once flags are parsed.
func (c *Config) Complete() error {
	c.Finalize()
	return c.Validate()
}

// Finalize applies fallbacks that cannot be expressed as flag defaults.
func (c *Config) Finalize() {
	if c.APIKey == "" {
		for _, env := range apiKeyFallbacks {
			if v := os.Getenv(env); v != "" {
				c.APIKey = v
				break
			}
		}
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate reports the first invalid knob.
func (c Config) Validate() error {
	switch {
	case c.MatchThreshold < 0 || c.MatchThreshold > 1:
		return fmt.Errorf("match-threshold must be within [0,1], got %v", c.MatchThreshold)
	case c.WholeLineBonus < 0 || c.WholeLineBonus > 1:
		return fmt.Errorf("whole-line-bonus must be within [0,1], got %v", c.WholeLineBonus)
	case c.WholeLineSlack < 0:
		return fmt.Errorf("whole-line-slack must not be negative, got %d", c.WholeLineSlack)
	case c.PreloadTimeout <= 0:
		return fmt.Errorf("preload-timeout must be positive, got %v", c.PreloadTimeout)
	case c.ProgressTick <= 0:
		return fmt.Errorf("progress-tick must be positive, got %v", c.ProgressTick)
	case c.CompletionDelay < 0 || c.FailureDelay < 0 || c.QuotaFailureDelay < 0:
		return errors.New("delays must not be negative")
	case c.HTTPRetries < 0:
		return fmt.Errorf("http-retries must not be negative, got %d", c.HTTPRetries)
	case c.HTTPTimeout < 0:
		return fmt.Errorf("http-timeout must not be negative, got %v", c.HTTPTimeout)
	case !strings.Contains(c.ThumbnailURL, resolve.QueryPlaceholder):
		return fmt.Errorf("thumbnail-url must contain %s", resolve.QueryPlaceholder)
	case c.LogLevel != "" && c.LogLevel != "info" && c.LogLevel != "debug":
		return fmt.Errorf("log-level must be info or debug, got %q", c.LogLevel)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool { return c.LogLevel == "debug" }

// Localize returns the matcher knobs.
func (c Config) Localize() localize.Config {
	return localize.Config{
		Threshold:      c.MatchThreshold,
		WholeLineBonus: c.WholeLineBonus,
		WholeLineSlack: c.WholeLineSlack,
	}
}

// Session returns the caller-facing timings.
func (c Config) Session() scan.SessionConfig {
	return scan.SessionConfig{
		ProgressTick:      c.ProgressTick,
		CompletionDelay:   c.CompletionDelay,
		FailureDelay:      c.FailureDelay,
		QuotaFailureDelay: c.QuotaFailureDelay,
	}
}

// Languages returns the OCR language hints.
func (c Config) Languages() []string { return ocr.ParseLanguages(c.OCRLanguages) }
