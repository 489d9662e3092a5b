package schema_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"podcastproc/internal/schema"
	"podcastproc/internal/services"
)

type scriptedRepairer struct {
	replies []string
	err     error
	prompts []string
}

func (s *scriptedRepairer) CompleteJSON(_ context.Context, _ string, user string) (string, error) {
	s.prompts = append(s.prompts, user)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func TestValidateAcceptsValidReplyWithoutRepair(t *testing.T) {
	r := &scriptedRepairer{}
	got, err := schema.Validate(context.Background(), r, schema.DescriptionShape(), `{"description":"A talk about bees."}`)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got != "A talk about bees." {
		t.Fatalf("unexpected description %q", got)
	}
	if len(r.prompts) != 0 {
		t.Fatalf("expected no repair requests, got %d", len(r.prompts))
	}
}

func TestValidateSucceedsAfterTwoMalformedReplies(t *testing.T) {
	r := &scriptedRepairer{replies: []string{
		`{"titles": [{"title": "Only one"}]}`,
		"```json\n" + `{"titles": [{"title": "First", "thumbnail_text": "BIG IDEA"}, {"title": "Second", "thumbnail_text": "WOW", "reasoning": "curiosity"}]}` + "\n```",
	}}
	var repairs []schema.Repair
	got, err := schema.Validate(
		context.Background(),
		r,
		schema.TitlesShape(2),
		`not json at all`,
		schema.WithRepairObserver(func(rep schema.Repair) { repairs = append(repairs, rep) }),
	)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(got) != 2 || got[0].Title != "First" || got[1].Reasoning != "curiosity" {
		t.Fatalf("unexpected titles %+v", got)
	}
	if len(r.prompts) != 2 {
		t.Fatalf("expected 2 repair requests, got %d", len(r.prompts))
	}
	if !strings.Contains(r.prompts[0], "not json at all") || !strings.Contains(r.prompts[0], "reply contains no JSON object") {
		t.Fatalf("first repair prompt missing raw text or error:\n%s", r.prompts[0])
	}
	if !strings.Contains(r.prompts[1], "expected exactly 2 entries, got 1") {
		t.Fatalf("second repair prompt missing validation error:\n%s", r.prompts[1])
	}
	if !strings.Contains(r.prompts[1], `"thumbnail_text"`) {
		t.Fatalf("repair prompt missing expected shape:\n%s", r.prompts[1])
	}
	if len(repairs) != 2 || repairs[0].Err == nil || repairs[1].Err != nil {
		t.Fatalf("unexpected repair log %+v", repairs)
	}
}

func TestValidateFailsAfterRepairBudget(t *testing.T) {
	r := &scriptedRepairer{replies: []string{`{}`, `{}`, `{}`}}
	_, err := schema.Validate(context.Background(), r, schema.DescriptionShape(), `{"desc": "x"}`)
	if !errors.Is(err, services.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	if services.Kind(err) != services.KindSchemaValidation {
		t.Fatalf("unexpected kind %s", services.Kind(err))
	}
	if len(r.prompts) != schema.DefaultMaxRepairAttempts {
		t.Fatalf("expected %d repair requests, got %d", schema.DefaultMaxRepairAttempts, len(r.prompts))
	}
}

func TestValidateZeroRepairAttempts(t *testing.T) {
	r := &scriptedRepairer{replies: []string{`{"description":"fixed"}`}}
	_, err := schema.Validate(context.Background(), r, schema.DescriptionShape(), `{}`, schema.WithMaxRepairAttempts(0))
	if !errors.Is(err, services.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	if len(r.prompts) != 0 {
		t.Fatalf("expected no repair requests, got %d", len(r.prompts))
	}
}

func TestValidatePassesThroughServiceErrors(t *testing.T) {
	fatal := services.Wrap(services.ErrFatalService, "llm complete json", "", "request rejected", nil)
	r := &scriptedRepairer{err: fatal}
	_, err := schema.Validate(context.Background(), r, schema.DescriptionShape(), `{}`)
	if !errors.Is(err, services.ErrFatalService) {
		t.Fatalf("expected fatal service error, got %v", err)
	}
	if errors.Is(err, services.ErrSchemaValidation) {
		t.Fatalf("service failure should not be reported as schema failure: %v", err)
	}
}

func TestValidateStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &scriptedRepairer{replies: []string{`{"description":"x"}`}}
	_, err := schema.Validate(ctx, r, schema.DescriptionShape(), `{}`)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
