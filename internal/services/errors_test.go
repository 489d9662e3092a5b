package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"podcastproc/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrFatalService, "llm", "complete", "http 401", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrFatalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"llm", "complete", "http 401"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransientMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransientService) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrSchemaValidation, "titles", "validate", "", nil), services.KindSchemaValidation},
		{services.Wrap(services.ErrAlignment, "chapters", "align", "", nil), services.KindAlignment},
		{services.Wrap(services.ErrFatalService, "llm", "", "", nil), services.KindFatalService},
		{services.Wrap(services.ErrTransientService, "llm", "", "", nil), services.KindTransientService},
		{fmt.Errorf("wrapped: %w", context.Canceled), services.KindCanceled},
		{errors.New("plain"), services.KindUnknown},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	transient := services.Wrap(services.ErrTransientService, "llm", "", "", nil)
	if !services.IsRetryable(transient) {
		t.Fatal("expected transient error to be retryable")
	}
	both := services.Wrap(services.ErrFatalService, "llm", "", "", transient)
	if services.IsRetryable(both) {
		t.Fatal("expected fatal marker to win over transient")
	}
	if services.IsRetryable(errors.New("plain")) {
		t.Fatal("expected unmarked error to be non-retryable")
	}
}
