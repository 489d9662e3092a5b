package generation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"podcastproc/internal/align"
	"podcastproc/internal/content"
	"podcastproc/internal/logging"
	"podcastproc/internal/metrics"
	"podcastproc/internal/schema"
	"podcastproc/internal/services"
	"podcastproc/internal/transcript"
)

// Defaults applied when the corresponding option is not supplied.
const (
	DefaultChapterCount = 10
	DefaultTitleCount   = 10
	DefaultTokenBudget  = 100000
	DefaultWorkers      = 3
)

// Completer issues completion requests. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Cache stores validated replies between runs. *gencache.Store satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, contentType, payload string) error
}

// Generator turns a transcript into a content bundle.
type Generator struct {
	client       Completer
	model        string
	chapterCount int
	titleCount   int
	tokenBudget  int
	maxRepairs   int
	workers      int
	cache        Cache
	metrics      *metrics.Metrics
	logger       *slog.Logger
	observer     func(ContentType, State)
}

// Option customizes a Generator.
type Option func(*Generator)

// WithChapterCount sets the target number of chapters.
func WithChapterCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.chapterCount = n
		}
	}
}

// WithTitleCount sets the exact number of titles requested.
func WithTitleCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.titleCount = n
		}
	}
}

// WithTokenBudget sets the per-segment token estimate limit. Zero or less
// sends the whole transcript in one request.
func WithTokenBudget(n int) Option {
	return func(g *Generator) {
		g.tokenBudget = n
	}
}

// WithMaxRepairAttempts bounds schema repair requests per reply.
func WithMaxRepairAttempts(n int) Option {
	return func(g *Generator) {
		g.maxRepairs = max(n, 0)
	}
}

// WithWorkers bounds how many content types generate concurrently.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithCache enables reuse of validated replies.
func WithCache(c Cache) Option {
	return func(g *Generator) {
		g.cache = c
	}
}

// WithMetrics records outcomes, repairs, and cache lookups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithLogger sets the logger; the generator logs under the "generation" component.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithModel overrides the model name folded into cache keys.
func WithModel(model string) Option {
	return func(g *Generator) {
		g.model = model
	}
}

// WithStateObserver registers a callback for every state transition. It may
// be called from several goroutines.
func WithStateObserver(observer func(ContentType, State)) Option {
	return func(g *Generator) {
		g.observer = observer
	}
}

// New constructs a Generator around client.
func New(client Completer, opts ...Option) *Generator {
	g := &Generator{
		client:       client,
		chapterCount: DefaultChapterCount,
		titleCount:   DefaultTitleCount,
		tokenBudget:  DefaultTokenBudget,
		maxRepairs:   schema.DefaultMaxRepairAttempts,
		workers:      DefaultWorkers,
	}
	if named, ok := client.(interface{ Model() string }); ok {
		g.model = named.Model()
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.NewComponentLogger(g.logger, "generation")
	return g
}

// Generate resolves every content type independently. A failed type never
// blocks the others; the result lists what resolved and why anything failed.
// The returned error is non-nil only for unusable input or cancellation; on
// cancellation the partial result is still returned.
func (g *Generator) Generate(ctx context.Context, t *transcript.Transcript) (Result, error) {
	if g.client == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "generation", "generate", "no completion client configured", nil)
	}
	if t.Len() == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "generation", "generate", "transcript has no words", nil)
	}

	started := time.Now()
	r := &run{
		g:        g,
		t:        t,
		states:   make(map[ContentType]State, len(ContentTypes)),
		failures: make(map[ContentType]Failure, len(ContentTypes)),
	}
	for _, ct := range ContentTypes {
		r.states[ct] = StatePending
	}

	logger := logging.WithContext(ctx, g.logger)
	logger.Info("generation started",
		logging.Int("words", t.Len()),
		logging.Float64("duration_seconds", t.Duration()),
		logging.Int("token_budget", g.tokenBudget),
		logging.Int("workers", g.workers),
	)

	var group errgroup.Group
	group.SetLimit(g.workers)
	for _, ct := range ContentTypes {
		group.Go(func() error {
			r.execute(ctx, ct)
			return nil
		})
	}
	_ = group.Wait()

	res := r.result()
	res.Elapsed = time.Since(started)
	g.metrics.RecordRun(res.Segments, res.Elapsed.Seconds())

	logger.Info("generation finished",
		logging.Int("resolved", len(ContentTypes)-len(res.Failures)),
		logging.Int("failed", len(res.Failures)),
		logging.Int("segments", res.Segments),
		logging.Duration("elapsed", res.Elapsed),
	)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// run holds the bookkeeping shared by one Generate call's tasks.
type run struct {
	g *Generator
	t *transcript.Transcript

	mu        sync.Mutex
	states    map[ContentType]State
	failures  map[ContentType]Failure
	bundle    content.Bundle
	alignment *align.Result
	segments  int
}

func (r *run) execute(ctx context.Context, ct ContentType) {
	ctx = services.WithContentType(ctx, string(ct))
	if err := ctx.Err(); err != nil {
		r.fail(ctx, ct, err)
		return
	}

	var err error
	switch ct {
	case ContentDescription:
		err = r.description(ctx)
	case ContentTitles:
		err = r.titles(ctx)
	case ContentChapters:
		err = r.chapters(ctx)
	}
	if err != nil {
		r.fail(ctx, ct, err)
		return
	}
	r.transition(ctx, ct, StateResolved)
	r.g.metrics.RecordOutcome(string(ct), string(StateResolved))
	logging.WithContext(ctx, r.g.logger).Info("content resolved")
}

func (r *run) transition(ctx context.Context, ct ContentType, state State) {
	r.mu.Lock()
	r.states[ct] = state
	r.mu.Unlock()
	if r.g.observer != nil {
		r.g.observer(ct, state)
	}
	logging.WithContext(ctx, r.g.logger).Debug("content state changed", logging.String("state", string(state)))
}

func (r *run) fail(ctx context.Context, ct ContentType, err error) {
	failure := Failure{ContentType: ct, Kind: services.Kind(err), Reason: err.Error(), Err: err}
	r.mu.Lock()
	r.failures[ct] = failure
	r.mu.Unlock()
	r.transition(ctx, ct, StateFailed)
	r.g.metrics.RecordOutcome(string(ct), string(StateFailed))

	logging.WarnWithContext(logging.WithContext(ctx, r.g.logger), "content generation failed", "content_failed",
		logging.String(logging.FieldErrorKind, failure.Kind),
		logging.Error(err),
		logging.String(logging.FieldImpact, string(ct)+" missing from output"),
		logging.String(logging.FieldErrorHint, hintFor(failure.Kind)),
	)
}

func (r *run) result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := Result{
		Bundle:    r.bundle,
		States:    make(map[ContentType]State, len(r.states)),
		Alignment: r.alignment,
		Segments:  r.segments,
	}
	for ct, state := range r.states {
		res.States[ct] = state
	}
	for _, ct := range ContentTypes {
		if f, ok := r.failures[ct]; ok {
			res.Failures = append(res.Failures, f)
		}
	}
	return res
}

func hintFor(kind string) string {
	switch kind {
	case services.KindTransientService:
		return "completion service kept failing; rerun later or raise llm.max_retries"
	case services.KindFatalService:
		return "check llm.api_key, llm.model, and llm.base_url"
	case services.KindSchemaValidation:
		return "model replies did not match the expected JSON; rerun or raise generation.max_repair_attempts"
	case services.KindAlignment:
		return "no proposed chapter could be located in the transcript; rerun chapters"
	case services.KindCanceled:
		return "run was canceled"
	default:
		return "check logs for details"
	}
}
