package preflight

import (
	"context"

	"podcastproc/internal/config"
	"podcastproc/internal/deps"
	"podcastproc/internal/services/llm"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

type options struct {
	lookPath   deps.LookPathFunc
	llmOptions []llm.Option
	skipLLM    bool
}

// Option customizes RunAll.
type Option func(*options)

// WithLookPath replaces the PATH lookup used for binary checks.
func WithLookPath(lookPath deps.LookPathFunc) Option {
	return func(o *options) {
		if lookPath != nil {
			o.lookPath = lookPath
		}
	}
}

// WithLLMOptions passes extra options to the health-check client.
func WithLLMOptions(opts ...llm.Option) Option {
	return func(o *options) {
		o.llmOptions = append(o.llmOptions, opts...)
	}
}

// WithoutLLM skips the completion API round trip.
func WithoutLLM() Option {
	return func(o *options) {
		o.skipLLM = true
	}
}

// RunAll executes every preflight check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts ...Option) []Result {
	if cfg == nil {
		return nil
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckOutputRoot(cfg.Paths.OutputDir))
	for _, status := range CheckSystemDeps(cfg, o.lookPath) {
		results = append(results, binaryResult(status))
	}
	if o.skipLLM {
		return results
	}
	results = append(results, CheckLLM(ctx, "Completion API", llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, o.llmOptions...))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

func binaryResult(status deps.Status) Result {
	name := status.Name
	if status.Available {
		return Result{Name: name, Passed: true, Detail: status.Path}
	}
	detail := status.Detail
	if status.Description != "" {
		detail += " (" + status.Description + ")"
	}
	return Result{Name: name, Passed: status.Optional, Detail: detail}
}
