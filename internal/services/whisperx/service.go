package whisperx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"podcastproc/internal/language"
	"podcastproc/internal/logging"
	"podcastproc/internal/services"
	"podcastproc/internal/transcript"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Transcriber runs WhisperX and loads its output.
type Transcriber struct {
	cfg      Config
	logger   *slog.Logger
	runner   CommandRunner
	lookPath func(string) (string, error)

	once    sync.Once
	initErr error
	workDir string

	mu     sync.Mutex
	closed bool
}

// Option customizes a Transcriber.
type Option func(*Transcriber)

// WithCommandRunner replaces process execution (used by tests).
func WithCommandRunner(runner CommandRunner) Option {
	return func(t *Transcriber) {
		t.runner = runner
	}
}

// WithLookPath replaces the PATH lookup used to find uvx.
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(t *Transcriber) {
		t.lookPath = lookPath
	}
}

// WithLogger sets the logger; the transcriber logs under the "whisperx" component.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transcriber) {
		t.logger = logger
	}
}

// New builds a Transcriber. Nothing is checked or created until the first
// Transcribe call.
func New(cfg Config, opts ...Option) *Transcriber {
	t := &Transcriber{
		cfg:      cfg,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.runner == nil {
		env := commandEnv(cfg.CacheDir)
		t.runner = func(ctx context.Context, name string, args ...string) error {
			return runCommand(ctx, env, name, args...)
		}
	}
	t.logger = logging.NewComponentLogger(t.logger, "whisperx")
	return t
}

// Model returns the configured model name for logging.
func (t *Transcriber) Model() string {
	if m := strings.TrimSpace(t.cfg.Model); m != "" {
		return m
	}
	return DefaultModel
}

// Supported reports whether path has an accepted audio extension.
func Supported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// Transcribe runs WhisperX over audio and returns the word-timed transcript.
func (t *Transcriber) Transcribe(ctx context.Context, audio string) (*transcript.Transcript, error) {
	if err := validateAudio(audio); err != nil {
		return nil, err
	}
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, services.Wrap(services.ErrConfiguration, "whisperx", "transcribe", "transcriber is closed", nil)
	}
	if err := t.init(); err != nil {
		return nil, err
	}

	logger := logging.WithContext(ctx, t.logger)
	logger.Info("transcription started",
		logging.String("audio", audio),
		logging.String("model", t.Model()),
		logging.Bool("cuda", t.cfg.CUDAEnabled),
	)
	started := time.Now()

	outputDir, err := os.MkdirTemp(t.workDir, "run-")
	if err != nil {
		return nil, fmt.Errorf("whisperx: create output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	if err := t.runner(ctx, UVXCommand, t.buildArgs(audio, outputDir)...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrTransientService, "whisperx", "transcribe", "whisperx run failed", err)
	}

	base := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
	result, err := transcript.Load(filepath.Join(outputDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	logger.Info("transcription finished",
		logging.Int("words", result.Len()),
		logging.Float64("duration_seconds", result.Duration()),
		logging.String("language", result.Language()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// Close removes the work directory. Transcribe fails after Close.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.workDir == "" {
		return nil
	}
	return os.RemoveAll(t.workDir)
}

func (t *Transcriber) init() error {
	t.once.Do(func() {
		if _, err := t.lookPath(UVXCommand); err != nil {
			t.initErr = services.Wrap(services.ErrConfiguration, "whisperx", "init",
				"uvx not found on PATH; install uv to enable transcription", err)
			return
		}
		if dir := strings.TrimSpace(t.cfg.CacheDir); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.initErr = fmt.Errorf("whisperx: create cache dir: %w", err)
				return
			}
		}
		dir, err := os.MkdirTemp("", "podcastproc-whisperx-")
		if err != nil {
			t.initErr = fmt.Errorf("whisperx: create work dir: %w", err)
			return
		}
		t.mu.Lock()
		t.workDir = dir
		t.mu.Unlock()
	})
	return t.initErr
}

func validateAudio(audio string) error {
	if strings.TrimSpace(audio) == "" {
		return services.Wrap(services.ErrValidation, "whisperx", "transcribe", "audio path required", nil)
	}
	if !Supported(audio) {
		return services.Wrap(services.ErrValidation, "whisperx", "transcribe",
			fmt.Sprintf("unsupported audio format %q (supported: %s)", filepath.Ext(audio), strings.Join(SupportedExtensions, " ")), nil)
	}
	info, err := os.Stat(audio)
	if err != nil {
		return services.Wrap(services.ErrValidation, "whisperx", "transcribe", "audio file not readable", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "whisperx", "transcribe", "audio path is a directory", nil)
	}
	return nil
}

// commandEnv returns the environment for WhisperX runs.
func commandEnv(cacheDir string) []string {
	env := os.Environ()
	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if dir := strings.TrimSpace(cacheDir); dir != "" {
		env = append(env,
			"HF_HOME="+filepath.Join(dir, "huggingface"),
			"TORCH_HOME="+filepath.Join(dir, "torch"),
		)
	}
	return env
}

func runCommand(ctx context.Context, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = env

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (t *Transcriber) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 40)

	if t.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", t.Model(),
		"--output_dir", outputDir,
		"--output_format", outputFormat,
	)
	args = append(args, decodeFlags...)

	vadMethod := t.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && t.cfg.HFToken != "" {
		args = append(args, "--hf_token", t.cfg.HFToken)
	}

	if lang := language.ToISO2(t.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if t.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", cpuComputeType)
	}

	return args
}
