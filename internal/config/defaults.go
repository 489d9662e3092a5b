package config

const (
	defaultConfigPath         = "~/.config/podcastproc/config.toml"
	projectConfigName         = "podcastproc.toml"
	defaultOutputDir          = "output"
	defaultLogDir             = "~/.local/share/podcastproc/logs"
	defaultWhisperXCacheDir   = "~/.local/share/podcastproc/cache/whisperx"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "anthropic/claude-sonnet-4.5"
	defaultLLMReferer         = "https://github.com/podcastproc/podcastproc"
	defaultLLMTitle           = "podcastproc"
	defaultLLMTimeoutSeconds  = 120
	defaultLLMTemperature     = 0.7
	defaultMaxRetries         = 3
	defaultRetryBaseSeconds   = 2
	defaultRetryMaxSeconds    = 10
	defaultRetryBudgetSeconds = 60
	defaultTokenBudget        = 100000
	defaultChapterCount       = 10
	defaultTitleCount         = 10
	defaultMaxRepairAttempts  = 2
	defaultWorkers            = 3
	defaultWhisperXModel      = "medium"
	defaultVADMethod          = "silero"

	// MinChapterCount and MaxChapterCount bound generation.chapter_count.
	MinChapterCount = 3
	MaxChapterCount = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:        defaultOutputDir,
			LogDir:           defaultLogDir,
			CacheDir:         defaultCacheDir(),
			WhisperXCacheDir: defaultWhisperXCacheDir,
		},
		LLM: LLM{
			BaseURL:            defaultLLMBaseURL,
			Model:              defaultLLMModel,
			Referer:            defaultLLMReferer,
			Title:              defaultLLMTitle,
			TimeoutSeconds:     defaultLLMTimeoutSeconds,
			Temperature:        defaultLLMTemperature,
			MaxRetries:         defaultMaxRetries,
			RetryBaseSeconds:   defaultRetryBaseSeconds,
			RetryMaxSeconds:    defaultRetryMaxSeconds,
			RetryBudgetSeconds: defaultRetryBudgetSeconds,
		},
		Generation: Generation{
			TokenBudget:       defaultTokenBudget,
			ChapterCount:      defaultChapterCount,
			TitleCount:        defaultTitleCount,
			MaxRepairAttempts: defaultMaxRepairAttempts,
			Workers:           defaultWorkers,
			CacheEnabled:      true,
		},
		Transcription: Transcription{
			WhisperXModel: defaultWhisperXModel,
			VADMethod:     defaultVADMethod,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
