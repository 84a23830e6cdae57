package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix+"_") || k == "GEMINI_API_KEY" || k == "API_KEY" {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("test", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Default()
	if cfg.MatchThreshold != 0.4 || cfg.WholeLineBonus != 0.2 || cfg.WholeLineSlack != 3 {
		t.Errorf("matcher defaults: %+v", cfg.Localize())
	}
	if cfg.PreloadTimeout != 3000*time.Millisecond {
		t.Errorf("PreloadTimeout: got %v", cfg.PreloadTimeout)
	}
	if cfg.CompletionDelay != 300*time.Millisecond || cfg.FailureDelay != 3*time.Second || cfg.QuotaFailureDelay != 5*time.Second {
		t.Errorf("session defaults: %+v", cfg.Session())
	}
	if cfg.OCRLanguages != "chi_sim+eng" || !cfg.OCRPreprocess {
		t.Errorf("OCR defaults: %q %v", cfg.OCRLanguages, cfg.OCRPreprocess)
	}
	if cfg.ThumbnailURL != want.ThumbnailURL || cfg.Model != want.Model {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Debug() {
		t.Error("debug should be off by default")
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	file := filepath.Join(dir, "menuscan.conf")
	content := "match-threshold 0.6\npreload-timeout 1s\nmodel file-model\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MENUSCAN_PRELOAD_TIMEOUT", "2s")
	t.Setenv("MENUSCAN_LOG_LEVEL", "DEBUG")

	cfg, err := Load("test", []string{"-config", file, "-model", "flag-model"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Model != "flag-model" {
		t.Errorf("flag should win over file: got %q", cfg.Model)
	}
	if cfg.PreloadTimeout != 2*time.Second {
		t.Errorf("env should win over file: got %v", cfg.PreloadTimeout)
	}
	if cfg.MatchThreshold != 0.6 {
		t.Errorf("file value not applied: got %v", cfg.MatchThreshold)
	}
	if !cfg.Debug() {
		t.Error("log level should be normalized to debug")
	}
}

func TestLoad_APIKeyFallbacks(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	t.Setenv("API_KEY", "generic")
	cfg, err := Load("test", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "generic" {
		t.Errorf("APIKey: got %q, want generic", cfg.APIKey)
	}

	t.Setenv("GEMINI_API_KEY", "gemini")
	cfg, _ = Load("test", nil)
	if cfg.APIKey != "gemini" {
		t.Errorf("GEMINI_API_KEY should take precedence: got %q", cfg.APIKey)
	}

	t.Setenv("MENUSCAN_API_KEY", "own")
	cfg, _ = Load("test", nil)
	if cfg.APIKey != "own" {
		t.Errorf("MENUSCAN_API_KEY should take precedence: got %q", cfg.APIKey)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GEMINI_API_KEY=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("GEMINI_API_KEY"); got != "from-dotenv" {
		t.Errorf("GEMINI_API_KEY: got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"threshold above 1", func(c *Config) { c.MatchThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.MatchThreshold = -0.1 }},
		{"negative bonus", func(c *Config) { c.WholeLineBonus = -1 }},
		{"negative slack", func(c *Config) { c.WholeLineSlack = -1 }},
		{"zero preload timeout", func(c *Config) { c.PreloadTimeout = 0 }},
		{"zero tick", func(c *Config) { c.ProgressTick = 0 }},
		{"negative delay", func(c *Config) { c.FailureDelay = -time.Second }},
		{"negative retries", func(c *Config) { c.HTTPRetries = -1 }},
		{"template without query", func(c *Config) { c.ThumbnailURL = "https://example.com/th" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_InvalidFlag(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	if _, err := Load("test", []string{"-match-threshold", "2"}); err == nil {
		t.Error("expected validation error")
	}
	if _, err := Load("test", []string{"-no-such-flag"}); err == nil {
		t.Error("expected parse error")
	}
}

func TestLanguages(t *testing.T) {
	cfg := Default()
	cfg.OCRLanguages = "jpn+kor"
	got := cfg.Languages()
	if len(got) != 2 || got[0] != "jpn" || got[1] != "kor" {
		t.Errorf("Languages: got %v", got)
	}
}

func TestNewFlagSet_BindsConfig(t *testing.T) {
	cfg := Default()
	fs := NewFlagSet("test", &cfg)
	fs.SetOutput(io.Discard)

	if fs.Lookup("config") == nil {
		t.Fatal("missing -config flag")
	}
	if err := fs.Parse([]string{"-model", "m2", "-preload-timeout", "1s"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Model != "m2" || cfg.PreloadTimeout != time.Second {
		t.Errorf("flags not bound: %+v", cfg)
	}
}

func TestComplete(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "fallback")

	cfg := Default()
	cfg.LogLevel = " DEBUG "
	if err := cfg.Complete(); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if cfg.APIKey != "fallback" || !cfg.Debug() {
		t.Errorf("Complete did not finalize: key=%q level=%q", cfg.APIKey, cfg.LogLevel)
	}

	cfg.WholeLineSlack = -1
	if err := cfg.Complete(); err == nil {
		t.Error("expected validation error")
	}
}
