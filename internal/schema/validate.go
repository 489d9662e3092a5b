package schema

import (
	"context"
	"fmt"
	"strings"

	"podcastproc/internal/services"
)

const (
	// DefaultMaxRepairAttempts bounds repair requests per reply.
	DefaultMaxRepairAttempts = 2
	maxEchoedRunes           = 12000
)

// Repairer issues the JSON-mode completion used to fix a malformed reply.
type Repairer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Shape is the strict contract for one kind of reply.
type Shape[T any] struct {
	Name     string
	Describe string
	Parse    func(raw string) (T, error)
}

// Repair describes one repair request for observers.
type Repair struct {
	Shape   string
	Attempt int
	Cause   error
	Err     error
}

type settings struct {
	maxRepairs int
	observer   func(Repair)
}

// Option customizes Validate.
type Option func(*settings)

// WithMaxRepairAttempts overrides the repair budget. Zero disables repair.
func WithMaxRepairAttempts(n int) Option {
	return func(s *settings) {
		s.maxRepairs = max(n, 0)
	}
}

// WithRepairObserver registers a callback invoked after each repair request.
func WithRepairObserver(observer func(Repair)) Option {
	return func(s *settings) {
		s.observer = observer
	}
}

// Validate parses raw against shape, repairing through r when it does not
// conform. Errors returned by r are passed through unchanged.
func Validate[T any](ctx context.Context, r Repairer, shape Shape[T], raw string, opts ...Option) (T, error) {
	cfg := settings{maxRepairs: DefaultMaxRepairAttempts}
	for _, opt := range opts {
		opt(&cfg)
	}

	value, err := shape.Parse(raw)
	if err == nil {
		return value, nil
	}
	var zero T
	for attempt := 1; attempt <= cfg.maxRepairs; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if r == nil {
			break
		}
		cause := err
		repaired, reqErr := r.CompleteJSON(ctx, repairSystemPrompt, RepairPrompt(shape.Describe, raw, cause))
		if reqErr != nil {
			cfg.notify(Repair{Shape: shape.Name, Attempt: attempt, Cause: cause, Err: reqErr})
			return zero, reqErr
		}
		raw = repaired
		value, err = shape.Parse(raw)
		cfg.notify(Repair{Shape: shape.Name, Attempt: attempt, Cause: cause, Err: err})
		if err == nil {
			return value, nil
		}
	}
	return zero, services.Wrap(
		services.ErrSchemaValidation,
		shape.Name,
		"validate",
		fmt.Sprintf("reply still invalid after %d repair attempts", cfg.maxRepairs),
		err,
	)
}

func (s settings) notify(r Repair) {
	if s.observer != nil {
		s.observer(r)
	}
}

const repairSystemPrompt = `You fix malformed JSON produced by another model.
Return only the corrected JSON object. Keep the original content wherever it is valid; change only what the validation error requires.`

// RepairPrompt builds the user prompt for a repair request.
func RepairPrompt(describe, raw string, cause error) string {
	var b strings.Builder
	b.WriteString("The following reply did not match the required format.\n\n")
	b.WriteString("Validation error:\n")
	if cause != nil {
		b.WriteString(cause.Error())
	}
	b.WriteString("\n\nRequired format:\n")
	b.WriteString(strings.TrimSpace(describe))
	b.WriteString("\n\nOriginal reply:\n")
	b.WriteString(truncateRunes(raw, maxEchoedRunes))
	b.WriteString("\n")
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
