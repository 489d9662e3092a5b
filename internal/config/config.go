package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output, log, and cache directories.
type Paths struct {
	OutputDir        string `toml:"output_dir"`
	LogDir           string `toml:"log_dir"`
	CacheDir         string `toml:"cache_dir"`
	WhisperXCacheDir string `toml:"whisperx_cache_dir"`
}

// LLM contains OpenRouter-compatible completion settings and the retry policy.
type LLM struct {
	APIKey             string  `toml:"api_key"`
	BaseURL            string  `toml:"base_url"`
	Model              string  `toml:"model"`
	Referer            string  `toml:"referer"`
	Title              string  `toml:"title"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	Temperature        float64 `toml:"temperature"`
	RequestsPerMinute  int     `toml:"requests_per_minute"`
	MaxRetries         int     `toml:"max_retries"`
	RetryBaseSeconds   float64 `toml:"retry_base_seconds"`
	RetryMaxSeconds    float64 `toml:"retry_max_seconds"`
	RetryBudgetSeconds float64 `toml:"retry_budget_seconds"`
}

// Generation contains content generation knobs.
type Generation struct {
	TokenBudget       int  `toml:"token_budget"`
	ChapterCount      int  `toml:"chapter_count"`
	TitleCount        int  `toml:"title_count"`
	MaxRepairAttempts int  `toml:"max_repair_attempts"`
	Workers           int  `toml:"workers"`
	CacheEnabled      bool `toml:"cache_enabled"`
}

// Transcription contains WhisperX settings.
type Transcription struct {
	WhisperXModel string `toml:"whisperx_model"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
	VADMethod     string `toml:"vad_method"`
	HFToken       string `toml:"hf_token"`
	Language      string `toml:"language"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics configures the Prometheus textfile written after each run. An empty
// path disables it.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for podcastproc.
//
// Configuration sections by subsystem:
//   - Paths: output, log, and cache directories
//   - LLM: completion endpoint, model, rate limit, and retry policy
//   - Generation: token budget, chapter/title counts, repair attempts, workers
//   - Transcription: WhisperX model and runtime options
//   - Logging: log format and level
//   - Metrics: optional Prometheus textfile export
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Generation    Generation    `toml:"generation"`
	Transcription Transcription `toml:"transcription"`
	Logging       Logging       `toml:"logging"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and cache directories. Output
// directories are created per run by the artifact writer.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CachePath returns the generation cache database location.
func (c *Config) CachePath() string {
	return filepath.Join(c.Paths.CacheDir, "generations.db")
}

// OutputDirFor returns the default output directory for an input stem.
func (c *Config) OutputDirFor(stem string) string {
	return filepath.Join(c.Paths.OutputDir, stem)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "podcastproc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/podcastproc"
	}
	return filepath.Join(home, ".cache", "podcastproc")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// RetrySettings is the LLM retry policy expressed as durations.
type RetrySettings struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Budget      time.Duration
}

// Retry returns the configured retry policy.
func (c *Config) Retry() RetrySettings {
	return RetrySettings{
		MaxAttempts: c.LLM.MaxRetries,
		BaseDelay:   secondsToDuration(c.LLM.RetryBaseSeconds),
		MaxDelay:    secondsToDuration(c.LLM.RetryMaxSeconds),
		Budget:      secondsToDuration(c.LLM.RetryBudgetSeconds),
	}
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
