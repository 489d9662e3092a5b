package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransientService = errors.New("transient service error")
	ErrFatalService     = errors.New("fatal service error")
	ErrSchemaValidation = errors.New("schema validation error")
	ErrAlignment        = errors.New("alignment error")
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
)

// Error kind names reported alongside per-content-type failures.
const (
	KindTransientService = "TransientServiceError"
	KindFatalService     = "FatalServiceError"
	KindSchemaValidation = "SchemaValidationError"
	KindAlignment        = "AlignmentError"
	KindCanceled         = "Canceled"
	KindUnknown          = "Error"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransientService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the taxonomy name reported to users. Cancellation takes
// precedence over any marker.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrSchemaValidation):
		return KindSchemaValidation
	case errors.Is(err, ErrAlignment):
		return KindAlignment
	case errors.Is(err, ErrFatalService):
		return KindFatalService
	case errors.Is(err, ErrTransientService):
		return KindTransientService
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether err carries the transient marker and nothing
// stronger.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrFatalService) {
		return false
	}
	return errors.Is(err, ErrTransientService)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
