package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"podcastproc/internal/language"
)

// Validate ensures the configuration is usable. The LLM API key is checked by
// RequireLLMKey because transcription alone does not need it.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireLLMKey reports a descriptive error when no API key is configured.
func (c *Config) RequireLLMKey() error {
	if strings.TrimSpace(c.LLM.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var, pass --api-key, or edit %s (create with 'podcastproc config init')", defaultPath)
}

func (c *Config) validateLLM() error {
	parsed, err := url.Parse(c.LLM.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("llm.base_url %q must be an absolute URL", c.LLM.BaseURL)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxRetries < 1 {
		return errors.New("llm.max_retries must be >= 1")
	}
	if c.LLM.RetryBaseSeconds < 0 {
		return errors.New("llm.retry_base_seconds must be >= 0")
	}
	if c.LLM.RetryMaxSeconds < c.LLM.RetryBaseSeconds {
		return errors.New("llm.retry_max_seconds must be >= llm.retry_base_seconds")
	}
	if c.LLM.RetryBudgetSeconds < 0 {
		return errors.New("llm.retry_budget_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	g := c.Generation
	if g.ChapterCount < MinChapterCount || g.ChapterCount > MaxChapterCount {
		return fmt.Errorf("generation.chapter_count must be between %d and %d", MinChapterCount, MaxChapterCount)
	}
	if g.TitleCount < 1 {
		return errors.New("generation.title_count must be >= 1")
	}
	if g.MaxRepairAttempts < 0 {
		return errors.New("generation.max_repair_attempts must be >= 0")
	}
	if g.Workers < 1 {
		return errors.New("generation.workers must be >= 1")
	}
	if g.TokenBudget < 0 {
		return errors.New("generation.token_budget must be >= 0 (0 disables segmentation)")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method %q must be silero or pyannote", c.Transcription.VADMethod)
	}
	if c.Transcription.VADMethod == "pyannote" && c.Transcription.HFToken == "" {
		return errors.New("transcription.hf_token must be set when transcription.vad_method is pyannote (or set HF_TOKEN)")
	}
	if c.Transcription.Language != "" && language.ToISO2(c.Transcription.Language) == "" {
		return fmt.Errorf("transcription.language %q is not a recognized language", c.Transcription.Language)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
}
