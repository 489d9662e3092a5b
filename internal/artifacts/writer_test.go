package artifacts_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"podcastproc/internal/artifacts"
	"podcastproc/internal/content"
	"podcastproc/internal/generation"
	"podcastproc/internal/services"
	"podcastproc/internal/transcript"
)

func sampleTranscript(t *testing.T) *transcript.Transcript {
	t.Helper()
	words := []transcript.Word{
		{Text: "Welcome", Start: 0, End: 0.5},
		{Text: "back.", Start: 0.6, End: 1.0},
		{Text: "Today", Start: 65, End: 65.4},
		{Text: "gardening.", Start: 65.5, End: 66.2},
	}
	tr, err := transcript.New(words,
		transcript.WithLanguage("en"),
		transcript.WithSentences([]transcript.Sentence{
			{Start: 0, End: 1.0, Text: "Welcome back."},
			{Start: 65, End: 66.2, Text: "Today gardening."},
		}),
	)
	if err != nil {
		t.Fatalf("transcript.New: %v", err)
	}
	return tr
}

func resolvedResult() generation.Result {
	return generation.Result{
		Bundle: content.Bundle{
			Description: "An episode about gardening.",
			Titles:      []content.Title{{Title: "Grow More", ThumbnailText: "GROW"}},
			Chapters:    []content.Chapter{{Timestamp: 0, Label: "Intro"}, {Timestamp: 65, Label: "Gardening"}},
		},
		States: map[generation.ContentType]generation.State{
			generation.ContentDescription: generation.StateResolved,
			generation.ContentTitles:      generation.StateResolved,
			generation.ContentChapters:    generation.StateResolved,
		},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestWriteAllArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "episode")
	tr := sampleTranscript(t)

	written, err := artifacts.NewWriter(nil).Write(dir, tr, resolvedResult())
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(written) != 5 {
		t.Fatalf("expected 5 files, got %v", written)
	}

	if got := readFile(t, filepath.Join(dir, artifacts.Chapters)); got != "00:00 Intro\n01:05 Gardening\n" {
		t.Fatalf("unexpected chapters.txt %q", got)
	}
	if got := readFile(t, filepath.Join(dir, artifacts.Description)); got != "An episode about gardening.\n" {
		t.Fatalf("unexpected description.md %q", got)
	}
	if got := readFile(t, filepath.Join(dir, artifacts.TranscriptText)); got != "[00:00] Welcome back.\n[01:05] Today gardening.\n" {
		t.Fatalf("unexpected transcript.txt %q", got)
	}

	var titles []content.Title
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(dir, artifacts.Titles))), &titles); err != nil {
		t.Fatalf("decode titles.json: %v", err)
	}
	if len(titles) != 1 || titles[0].ThumbnailText != "GROW" {
		t.Fatalf("unexpected titles %+v", titles)
	}

	reloaded, err := transcript.Load(filepath.Join(dir, artifacts.TranscriptJSON))
	if err != nil {
		t.Fatalf("reload transcript: %v", err)
	}
	if reloaded.FullText() != tr.FullText() || reloaded.Duration() != tr.Duration() {
		t.Fatalf("reloaded transcript differs: %q", reloaded.FullText())
	}
	if _, err := os.Stat(filepath.Join(dir, artifacts.Failures)); !os.IsNotExist(err) {
		t.Fatalf("failures.json should not exist, got %v", err)
	}
}

func TestWriteRecordsFailuresAndRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	tr := sampleTranscript(t)
	w := artifacts.NewWriter(nil)
	if _, err := w.Write(dir, tr, resolvedResult()); err != nil {
		t.Fatalf("first write: %v", err)
	}

	failed := resolvedResult()
	failed.Bundle.Titles = nil
	failed.States[generation.ContentTitles] = generation.StateFailed
	failed.Failures = []generation.Failure{{
		ContentType: generation.ContentTitles,
		Kind:        services.KindSchemaValidation,
		Reason:      "titles validate: reply still invalid after 2 repair attempts",
	}}
	if _, err := w.Write(dir, tr, failed); err != nil {
		t.Fatalf("second write: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, artifacts.Titles)); !os.IsNotExist(err) {
		t.Fatalf("stale titles.json should be removed, got %v", err)
	}
	var failures []map[string]string
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(dir, artifacts.Failures))), &failures); err != nil {
		t.Fatalf("decode failures.json: %v", err)
	}
	if len(failures) != 1 || failures[0]["content_type"] != "titles" || failures[0]["kind"] != services.KindSchemaValidation {
		t.Fatalf("unexpected failures %+v", failures)
	}

	if _, err := w.Write(dir, tr, resolvedResult()); err != nil {
		t.Fatalf("third write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, artifacts.Failures)); !os.IsNotExist(err) {
		t.Fatalf("failures.json should be removed after a clean run, got %v", err)
	}
}

func TestWriteRefusesLockedDirectory(t *testing.T) {
	dir := t.TempDir()
	held := flock.New(filepath.Join(dir, ".podcastproc.lock"))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire test lock: %v %v", ok, err)
	}
	defer held.Unlock()

	_, err = artifacts.NewWriter(nil).WriteTranscript(dir, sampleTranscript(t))
	if err == nil || !strings.Contains(err.Error(), "in use") {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}

func TestTranscriptLinesWithoutSentences(t *testing.T) {
	words := []transcript.Word{
		{Text: "one", Start: 0, End: 1},
		{Text: "two", Start: 10, End: 11},
		{Text: "three", Start: 31, End: 32},
	}
	tr, err := transcript.New(words)
	if err != nil {
		t.Fatalf("transcript.New: %v", err)
	}
	if got := artifacts.TranscriptLines(tr); got != "[00:00] one two\n[00:31] three\n" {
		t.Fatalf("unexpected lines %q", got)
	}
}
