package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"podcastproc/internal/align"
	"podcastproc/internal/content"
	"podcastproc/internal/gencache"
	"podcastproc/internal/logging"
	"podcastproc/internal/schema"
	"podcastproc/internal/segment"
	"podcastproc/internal/services"
)

func (r *run) description(ctx context.Context) error {
	const ct = ContentDescription
	segs := r.segment(ctx, ct)

	r.transition(ctx, ct, StateRequesting)
	shape := schema.DescriptionShape()
	key := r.cacheKey(ct, "")
	if desc, ok := cachedValue(ctx, r, key, shape); ok {
		r.transition(ctx, ct, StateValidating)
		r.setDescription(desc)
		return nil
	}

	material, condensed, err := r.material(ctx, segs)
	if err != nil {
		return err
	}
	raw, err := r.g.client.CompleteJSON(ctx, descriptionSystemPrompt, descriptionPrompt(material, condensed, schema.MaxDescriptionRunes))
	if err != nil {
		return err
	}

	r.transition(ctx, ct, StateValidating)
	desc, err := schema.Validate(ctx, r.g.client, shape, raw, r.validateOptions(ctx, ct)...)
	if err != nil {
		return err
	}
	r.store(ctx, key, ct, map[string]any{"description": desc})
	r.setDescription(desc)
	return nil
}

func (r *run) titles(ctx context.Context) error {
	const ct = ContentTitles
	segs := r.segment(ctx, ct)

	r.transition(ctx, ct, StateRequesting)
	shape := schema.TitlesShape(r.g.titleCount)
	key := r.cacheKey(ct, "count="+strconv.Itoa(r.g.titleCount))
	if titles, ok := cachedValue(ctx, r, key, shape); ok {
		r.transition(ctx, ct, StateValidating)
		r.setTitles(titles)
		return nil
	}

	material, condensed, err := r.material(ctx, segs)
	if err != nil {
		return err
	}
	raw, err := r.g.client.CompleteJSON(ctx, titlesSystemPrompt, titlesPrompt(material, condensed, r.g.titleCount))
	if err != nil {
		return err
	}

	r.transition(ctx, ct, StateValidating)
	titles, err := schema.Validate(ctx, r.g.client, shape, raw, r.validateOptions(ctx, ct)...)
	if err != nil {
		return err
	}
	r.store(ctx, key, ct, map[string]any{"titles": titles})
	r.setTitles(titles)
	return nil
}

// chapters requests raw chapters per segment, validates each reply, maps
// segment-relative positions onto the whole recording, and aligns the
// concatenation against the full transcript.
func (r *run) chapters(ctx context.Context) error {
	const ct = ContentChapters
	segs := r.segment(ctx, ct)

	r.transition(ctx, ct, StateRequesting)
	key := r.cacheKey(ct, "count="+strconv.Itoa(r.g.chapterCount))
	raw, ok := cachedValue(ctx, r, key, schema.ChaptersShape(0))
	if ok {
		r.transition(ctx, ct, StateValidating)
	} else {
		shares := chapterShares(segs, r.g.chapterCount)
		replies := make([]string, len(segs))
		for i, seg := range segs {
			if err := ctx.Err(); err != nil {
				return err
			}
			segCtx := services.WithSegment(ctx, seg.Index)
			prompt := chaptersPrompt(r.segmentText(seg), shares[i], seg.End()-seg.Start(), i, len(segs))
			reply, err := r.g.client.CompleteJSON(segCtx, chaptersSystemPrompt, prompt)
			if err != nil {
				return err
			}
			replies[i] = reply
		}

		r.transition(ctx, ct, StateValidating)
		for i, seg := range segs {
			segCtx := services.WithSegment(ctx, seg.Index)
			got, err := schema.Validate(segCtx, r.g.client, schema.ChaptersShape(shares[i]), replies[i], r.validateOptions(segCtx, ct)...)
			if err != nil {
				return err
			}
			if len(segs) > 1 {
				got = globalizePositions(got, seg, r.t.Duration())
			}
			raw = append(raw, got...)
		}
		r.store(ctx, key, ct, map[string]any{"chapters": raw})
	}

	result := align.Align(raw, r.t)
	r.setAlignment(result)
	r.g.metrics.RecordChaptersDropped(len(result.Dropped))
	logger := logging.WithContext(ctx, r.g.logger)
	for _, d := range result.Dropped {
		logging.WarnWithContext(logger, "chapter dropped", "chapter_dropped",
			logging.Int("chapter_index", d.Index),
			logging.String("chapter_title", d.Chapter.Label),
			logging.Error(d.Err),
			logging.String(logging.FieldImpact, "fewer chapters in output"),
			logging.String(logging.FieldErrorHint, "quote did not match the transcript and no usable position was given"),
		)
	}
	if len(result.Chapters) == 0 {
		var cause error
		if len(result.Dropped) > 0 {
			cause = result.Dropped[0].Err
		}
		return services.Wrap(services.ErrAlignment, string(ct), "align",
			fmt.Sprintf("none of %d proposed chapters could be placed", len(raw)), cause)
	}
	logger.Debug("chapters aligned",
		logging.Int("proposed", len(raw)),
		logging.Int("placed", len(result.Chapters)),
		logging.Int("dropped", len(result.Dropped)),
	)
	r.setChapters(result.Chapters)
	return nil
}

func (r *run) segment(ctx context.Context, ct ContentType) []segment.Segment {
	r.transition(ctx, ct, StateSegmenting)
	segs := segment.Split(r.t, r.g.tokenBudget)

	r.mu.Lock()
	r.segments = max(r.segments, len(segs))
	r.mu.Unlock()

	logger := logging.WithContext(ctx, r.g.logger)
	for _, seg := range segs {
		if seg.Oversized {
			logging.WarnWithContext(logger, "segment exceeds token budget", "segment_oversized",
				logging.Int(logging.FieldSegment, seg.Index),
				logging.Int("token_estimate", seg.TokenEstimate),
				logging.Int("token_budget", r.g.tokenBudget),
				logging.String(logging.FieldImpact, "request may be rejected by the model"),
				logging.String(logging.FieldErrorHint, "raise generation.token_budget"),
			)
		}
	}
	if len(segs) > 1 {
		logger.Info("transcript segmented", logging.Int("segments", len(segs)))
	}
	return segs
}

// material returns the text a final description or titles request works
// from: the transcript itself, or per-segment notes in transcript order.
func (r *run) material(ctx context.Context, segs []segment.Segment) (string, bool, error) {
	if len(segs) <= 1 {
		return r.t.FullText(), false, nil
	}
	parts := make([]string, 0, len(segs))
	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		segCtx := services.WithSegment(ctx, seg.Index)
		notes, err := r.g.client.Complete(segCtx, notesSystemPrompt, notesPrompt(i, len(segs), r.segmentText(seg)))
		if err != nil {
			return "", false, err
		}
		parts = append(parts, fmt.Sprintf("[Part %d of %d]\n%s", i+1, len(segs), strings.TrimSpace(notes)))
	}
	return strings.Join(parts, "\n\n"), true, nil
}

func (r *run) segmentText(seg segment.Segment) string {
	return r.t.Text(seg.First, seg.First+seg.Len())
}

func (r *run) validateOptions(ctx context.Context, ct ContentType) []schema.Option {
	logger := logging.WithContext(ctx, r.g.logger)
	return []schema.Option{
		schema.WithMaxRepairAttempts(r.g.maxRepairs),
		schema.WithRepairObserver(func(rep schema.Repair) {
			r.g.metrics.RecordRepair(string(ct))
			attrs := []logging.Attr{
				logging.Int("repair_attempt", rep.Attempt),
				logging.String("cause", rep.Cause.Error()),
			}
			if rep.Err != nil {
				attrs = append(attrs, logging.String("result", rep.Err.Error()))
			} else {
				attrs = append(attrs, logging.String("result", "valid"))
			}
			logger.Info("schema repair requested", logging.Args(attrs...)...)
		}),
	}
}

func (r *run) cacheKey(ct ContentType, options string) string {
	return gencache.Key(
		r.g.model,
		PromptVersion,
		string(ct),
		options,
		"budget="+strconv.Itoa(r.g.tokenBudget),
		r.t.FullText(),
	)
}

// cachedValue returns a cached reply re-parsed through shape. Lookup or
// parse failures count as misses.
func cachedValue[T any](ctx context.Context, r *run, key string, shape schema.Shape[T]) (T, bool) {
	var zero T
	if r.g.cache == nil {
		return zero, false
	}
	logger := logging.WithContext(ctx, r.g.logger)
	payload, ok, err := r.g.cache.Get(ctx, key)
	if err != nil {
		logging.WarnWithContext(logger, "generation cache lookup failed", "cache_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "reply will be regenerated"),
		)
		return zero, false
	}
	r.g.metrics.RecordCacheLookup(ok)
	if !ok {
		return zero, false
	}
	value, err := shape.Parse(payload)
	if err != nil {
		logging.WarnWithContext(logger, "cached reply no longer valid", "cache_entry_invalid",
			logging.Error(err),
			logging.String(logging.FieldImpact, "reply will be regenerated"),
		)
		return zero, false
	}
	logger.Info("reused cached reply")
	return value, true
}

func (r *run) store(ctx context.Context, key string, ct ContentType, envelope any) {
	if r.g.cache == nil {
		return
	}
	payload, err := json.Marshal(envelope)
	if err == nil {
		err = r.g.cache.Put(ctx, key, string(ct), string(payload))
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.g.logger), "generation cache store failed", "cache_store_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next run will call the model again"),
		)
	}
}

func (r *run) setDescription(desc string) {
	r.mu.Lock()
	r.bundle.Description = desc
	r.mu.Unlock()
}

func (r *run) setTitles(titles []content.Title) {
	r.mu.Lock()
	r.bundle.Titles = titles
	r.mu.Unlock()
}

func (r *run) setChapters(chapters []content.Chapter) {
	r.mu.Lock()
	r.bundle.Chapters = chapters
	r.mu.Unlock()
}

func (r *run) setAlignment(result align.Result) {
	r.mu.Lock()
	r.alignment = &result
	r.mu.Unlock()
}

// chapterShares splits total across segments in proportion to their word
// counts, giving every segment at least one chapter.
func chapterShares(segs []segment.Segment, total int) []int {
	shares := make([]int, len(segs))
	if len(segs) == 1 {
		shares[0] = max(total, 1)
		return shares
	}
	words := 0
	for _, seg := range segs {
		words += seg.Len()
	}
	for i, seg := range segs {
		share := 1
		if words > 0 {
			share = int(math.Round(float64(total) * float64(seg.Len()) / float64(words)))
		}
		shares[i] = max(share, 1)
	}
	return shares
}

// globalizePositions rewrites positions relative to seg as positions relative
// to the whole recording.
func globalizePositions(chapters []content.RawChapter, seg segment.Segment, duration float64) []content.RawChapter {
	out := make([]content.RawChapter, len(chapters))
	span := seg.End() - seg.Start()
	for i, ch := range chapters {
		out[i] = ch
		if ch.Position == nil {
			continue
		}
		global := 0.0
		if duration > 0 {
			global = (seg.Start() + *ch.Position*span) / duration
		}
		global = math.Min(math.Max(global, 0), 1)
		out[i].Position = &global
	}
	return out
}
