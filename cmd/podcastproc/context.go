package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"podcastproc/internal/config"
	"podcastproc/internal/gencache"
	"podcastproc/internal/generation"
	"podcastproc/internal/logging"
	"podcastproc/internal/metrics"
	"podcastproc/internal/preflight"
	"podcastproc/internal/services"
	"podcastproc/internal/services/llm"
	"podcastproc/internal/services/retry"
	"podcastproc/internal/services/whisperx"
)

// commandContext owns the collaborators shared by a single CLI invocation.
// Each one is built on first use and released by close.
type commandContext struct {
	configFlag   string
	logLevelFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	clientOnce sync.Once
	client     *llm.Client
	clientErr  error

	transcriberOnce sync.Once
	transcriber     *whisperx.Transcriber

	cacheOnce sync.Once
	cache     *gencache.Store

	metricsOnce sync.Once
	metrics     *metrics.Metrics

	// Test hooks.
	llmOptions         []llm.Option
	transcriberOptions []whisperx.Option
	preflightOptions   []preflight.Option
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerValue() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) metricsValue() *metrics.Metrics {
	c.metricsOnce.Do(func() {
		c.metrics = metrics.New()
	})
	return c.metrics
}

// llmClient builds the completion client. Overrides must be applied to the
// config before the first call.
func (c *commandContext) llmClient() (*llm.Client, error) {
	c.clientOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.clientErr = err
			return
		}
		if err := cfg.RequireLLMKey(); err != nil {
			c.clientErr = services.Wrap(services.ErrConfiguration, "llm", "init", "missing api key", err)
			return
		}
		logger, err := c.loggerValue()
		if err != nil {
			c.clientErr = err
			return
		}
		logger = logging.NewComponentLogger(logger, "llm")
		policy := cfg.Retry()
		opts := []llm.Option{
			llm.WithRetryMaxAttempts(policy.MaxAttempts),
			llm.WithRetryBackoff(policy.BaseDelay, policy.MaxDelay),
			llm.WithRetryBudget(policy.Budget),
			llm.WithMetrics(c.metricsValue()),
			llm.WithAttemptObserver(func(a retry.Attempt) {
				if a.Err == nil {
					return
				}
				attrs := []logging.Attr{
					logging.Int("attempt", a.Number),
					logging.Error(a.Err),
					logging.String(logging.FieldErrorKind, services.Kind(a.Err)),
				}
				if a.Retrying {
					logger.Info("completion attempt failed; retrying", logging.Args(append(attrs, logging.Duration("delay", a.Delay))...)...)
					return
				}
				logger.Debug("completion attempt failed", logging.Args(attrs...)...)
			}),
		}
		c.client = llm.NewClient(llm.Config{
			APIKey:            cfg.LLM.APIKey,
			BaseURL:           cfg.LLM.BaseURL,
			Model:             cfg.LLM.Model,
			Referer:           cfg.LLM.Referer,
			Title:             cfg.LLM.Title,
			TimeoutSeconds:    cfg.LLM.TimeoutSeconds,
			Temperature:       cfg.LLM.Temperature,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		}, append(opts, c.llmOptions...)...)
	})
	return c.client, c.clientErr
}

func (c *commandContext) transcriberValue() (*whisperx.Transcriber, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerValue()
	if err != nil {
		return nil, err
	}
	c.transcriberOnce.Do(func() {
		opts := append([]whisperx.Option{whisperx.WithLogger(logger)}, c.transcriberOptions...)
		c.transcriber = whisperx.New(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			VADMethod:   cfg.Transcription.VADMethod,
			HFToken:     cfg.Transcription.HFToken,
			Language:    cfg.Transcription.Language,
			CacheDir:    cfg.Paths.WhisperXCacheDir,
		}, opts...)
	})
	return c.transcriber, nil
}

// generationCache opens the reply cache. A cache that cannot be opened is
// logged and skipped; generation still works without it.
func (c *commandContext) generationCache(logger *slog.Logger) *gencache.Store {
	c.cacheOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			return
		}
		store, err := gencache.Open(cfg.CachePath())
		if err != nil {
			logging.WarnWithContext(logger, "generation cache unavailable", "cache_open_failed",
				logging.Error(err),
				logging.String("path", cfg.CachePath()),
				logging.String(logging.FieldImpact, "all content will be requested from the model"),
				logging.String(logging.FieldErrorHint, "check paths.cache_dir permissions or delete the cache file"),
			)
			return
		}
		c.cache = store
	})
	return c.cache
}

// newGenerator wires a Generator from the resolved configuration.
func (c *commandContext) newGenerator(logger *slog.Logger, useCache bool) (*generation.Generator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.llmClient()
	if err != nil {
		return nil, err
	}
	opts := []generation.Option{
		generation.WithChapterCount(cfg.Generation.ChapterCount),
		generation.WithTitleCount(cfg.Generation.TitleCount),
		generation.WithTokenBudget(cfg.Generation.TokenBudget),
		generation.WithMaxRepairAttempts(cfg.Generation.MaxRepairAttempts),
		generation.WithWorkers(cfg.Generation.Workers),
		generation.WithMetrics(c.metricsValue()),
		generation.WithLogger(logger),
	}
	if useCache && cfg.Generation.CacheEnabled {
		if store := c.generationCache(logger); store != nil {
			opts = append(opts, generation.WithCache(store))
		}
	}
	return generation.New(client, opts...), nil
}

// begin tags the command's context with a fresh run ID and returns the
// run-scoped logger.
func (c *commandContext) begin(cmd *cobra.Command) (context.Context, *slog.Logger, error) {
	logger, err := c.loggerValue()
	if err != nil {
		return nil, nil, err
	}
	runID := uuid.NewString()
	ctx := services.WithRunID(cmd.Context(), runID)
	logger = logging.WithContext(ctx, logger)
	logger.Debug("run started", logging.String("command", cmd.CommandPath()))
	return ctx, logger, nil
}

// close releases collaborators and exports metrics.
func (c *commandContext) close(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if c.transcriber != nil {
		if err := c.transcriber.Close(); err != nil {
			logger.Warn("failed to remove transcription work dir", logging.Error(err))
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			logger.Warn("failed to close generation cache", logging.Error(err))
		}
	}
	if c.config != nil && c.metrics != nil {
		if path := strings.TrimSpace(c.config.Metrics.TextfilePath); path != "" {
			if err := c.metrics.WriteTextfile(path); err != nil {
				logging.WarnWithContext(logger, "failed to write metrics textfile", "metrics_write_failed",
					logging.Error(err),
					logging.String("path", path),
					logging.String(logging.FieldImpact, "run metrics not exported"),
				)
			}
		}
	}
}

// applyOverrides folds command-line flags into cfg and revalidates it.
func applyOverrides(cfg *config.Config, flags *runFlags) error {
	if v := strings.TrimSpace(flags.apiKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := strings.TrimSpace(flags.whisperModel); v != "" {
		cfg.Transcription.WhisperXModel = v
	}
	if flags.chapters > 0 {
		cfg.Generation.ChapterCount = flags.chapters
	}
	if flags.titles > 0 {
		cfg.Generation.TitleCount = flags.titles
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}
