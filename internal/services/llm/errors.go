package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"podcastproc/internal/services"
	"podcastproc/internal/services/retry"
)

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *httpStatusError) retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

func (e *emptyContentError) refused() bool {
	return strings.TrimSpace(e.Refusal) != "" || strings.EqualFold(e.FinishReason, "content_filter")
}

type malformedResponseError struct {
	Snippet string
	Err     error
}

func (e *malformedResponseError) Error() string {
	return fmt.Sprintf("llm request: decode response: %v (response_snippet=%s)", e.Err, e.Snippet)
}

func (e *malformedResponseError) Unwrap() error { return e.Err }

type apiError struct {
	Code    int
	Message string
}

func (e *apiError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("llm request: api error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("llm request: api error: %s", e.Message)
}

// timeoutError reports a request that hit the HTTP client timeout. It keeps
// the message but does not unwrap, so it is never mistaken for caller
// cancellation.
type timeoutError struct {
	msg string
}

func (e *timeoutError) Error() string { return e.msg }

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// markRequestError tags a transport or protocol failure with the transient or
// fatal marker. Context errors pass through only when the caller's context is
// done; otherwise they came from the client timeout.
func markRequestError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	if isTimeout(err) {
		return services.Wrap(services.ErrTransientService, op, "", "request timed out", &timeoutError{msg: err.Error()})
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if statusErr.retryable() {
			return services.Wrap(services.ErrTransientService, op, "", "", err)
		}
		return services.Wrap(services.ErrFatalService, op, "", "request rejected", err)
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 0 || apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return services.Wrap(services.ErrTransientService, op, "", "", err)
		}
		return services.Wrap(services.ErrFatalService, op, "", "request rejected", err)
	}

	var malformed *malformedResponseError
	if errors.As(err, &malformed) {
		return services.Wrap(services.ErrTransientService, op, "", "", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return services.Wrap(services.ErrTransientService, op, "", "network failure", err)
	}
	return services.Wrap(services.ErrFatalService, op, "", "", err)
}

// classifyAttempt retries transient failures and honours Retry-After.
func classifyAttempt(err error) retry.Decision {
	if !services.IsRetryable(err) {
		return retry.Decision{}
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return retry.Decision{Retry: true, After: statusErr.RetryAfter}
	}
	return retry.Decision{Retry: true}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case services.IsRetryable(err):
		return "transient"
	default:
		return "fatal"
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
