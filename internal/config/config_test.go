package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"podcastproc/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tempHome, "xdg"))

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "podcastproc", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	wantLogs := filepath.Join(tempHome, ".local", "share", "podcastproc", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, "xdg", "podcastproc") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Generation.ChapterCount != 10 {
		t.Fatalf("expected default chapter count 10, got %d", cfg.Generation.ChapterCount)
	}
	if cfg.LLM.MaxRetries != 3 {
		t.Fatalf("expected default max retries 3, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.Generation.MaxRepairAttempts != 2 {
		t.Fatalf("expected default repair attempts 2, got %d", cfg.Generation.MaxRepairAttempts)
	}
	if cfg.Transcription.VADMethod != "silero" {
		t.Fatalf("expected silero VAD default, got %q", cfg.Transcription.VADMethod)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console log format, got %q", cfg.Logging.Format)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.CacheDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if got := cfg.CachePath(); got != filepath.Join(cfg.Paths.CacheDir, "generations.db") {
		t.Fatalf("unexpected cache path %q", got)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "podcastproc.toml")

	type payload struct {
		LLM struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"llm"`
		Generation struct {
			ChapterCount int `toml:"chapter_count"`
			TitleCount   int `toml:"title_count"`
		} `toml:"generation"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.LLM.APIKey = "abc123"
	custom.LLM.BaseURL = "https://example.com/v1/chat/completions"
	custom.Generation.ChapterCount = 12
	custom.Generation.TitleCount = 5
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.LLM.APIKey != "abc123" {
		t.Fatalf("expected key from file, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "https://example.com/v1/chat/completions" {
		t.Fatalf("expected base url override, got %q", cfg.LLM.BaseURL)
	}
	if cfg.Generation.ChapterCount != 12 || cfg.Generation.TitleCount != 5 {
		t.Fatalf("unexpected generation overrides: %+v", cfg.Generation)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
	if cfg.LLM.Model != config.Default().LLM.Model {
		t.Fatalf("expected default model to survive partial file, got %q", cfg.LLM.Model)
	}
}

func TestFileValuesWinOverEnvFallbacks(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "podcastproc.toml")
	contents := "[llm]\napi_key = \"file-key\"\n\n[transcription]\nhf_token = \"file-hf\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("HF_TOKEN", "env-hf")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Errorf("expected file key to win, got %q", cfg.LLM.APIKey)
	}
	if cfg.Transcription.HFToken != "file-hf" {
		t.Errorf("expected file HF token to win, got %q", cfg.Transcription.HFToken)
	}
}

func TestHFTokenFallsBackToEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HF_TOKEN", "env-hf")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcription.HFToken != "env-hf" {
		t.Fatalf("expected HF token from env, got %q", cfg.Transcription.HFToken)
	}
	if err := cfg.RequireLLMKey(); err == nil {
		t.Fatal("expected missing key error")
	} else if !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Fatalf("expected env var hint, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "OPENROUTER_API_KEY") {
		t.Fatalf("sample config missing api key hint: %s", contents)
	}

	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Generation.ChapterCount != 10 || cfg.Generation.TitleCount != 10 {
		t.Fatalf("unexpected sample generation values: %+v", cfg.Generation)
	}
}

func TestRetrySettings(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.RetryBaseSeconds = 0.5
	got := cfg.Retry()
	if got.MaxAttempts != 3 {
		t.Fatalf("unexpected attempts %d", got.MaxAttempts)
	}
	if got.BaseDelay != 500*time.Millisecond {
		t.Fatalf("unexpected base delay %s", got.BaseDelay)
	}
	if got.MaxDelay != 10*time.Second || got.Budget != time.Minute {
		t.Fatalf("unexpected bounds %+v", got)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"chapter count below range", func(c *config.Config) { c.Generation.ChapterCount = 2 }},
		{"chapter count above range", func(c *config.Config) { c.Generation.ChapterCount = 31 }},
		{"no titles", func(c *config.Config) { c.Generation.TitleCount = 0 }},
		{"negative repairs", func(c *config.Config) { c.Generation.MaxRepairAttempts = -1 }},
		{"zero workers", func(c *config.Config) { c.Generation.Workers = 0 }},
		{"zero retries", func(c *config.Config) { c.LLM.MaxRetries = 0 }},
		{"max delay below base", func(c *config.Config) { c.LLM.RetryMaxSeconds = 1 }},
		{"relative base url", func(c *config.Config) { c.LLM.BaseURL = "openrouter.ai" }},
		{"unknown vad", func(c *config.Config) { c.Transcription.VADMethod = "webrtc" }},
		{"pyannote without token", func(c *config.Config) { c.Transcription.VADMethod = "pyannote" }},
		{"unknown level", func(c *config.Config) { c.Logging.Level = "trace" }},
		{"unknown language", func(c *config.Config) { c.Transcription.Language = "not a language" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	cfg.Generation.ChapterCount = config.MinChapterCount
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected lower bound to be valid: %v", err)
	}
	cfg.Generation.ChapterCount = config.MaxChapterCount
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected upper bound to be valid: %v", err)
	}
}
