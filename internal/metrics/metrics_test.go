package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcastproc/internal/metrics"
)

func dump(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "podcastproc.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	return string(data)
}

func requireLine(t *testing.T, text, line string) {
	t.Helper()
	for _, got := range strings.Split(text, "\n") {
		if got == line {
			return
		}
	}
	t.Fatalf("expected line %q in:\n%s", line, text)
}

func TestRecordersUpdateCollectors(t *testing.T) {
	m := metrics.New()
	m.RecordAttempt("success", 0.4)
	m.RecordAttempt("transient", 1.2)
	m.RecordAttempt("success", 0.3)
	m.RecordRepair("titles")
	m.RecordOutcome("chapters", "resolved")
	m.RecordChaptersDropped(2)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)

	text := dump(t, m)
	requireLine(t, text, `podcastproc_completion_attempts_total{outcome="success"} 2`)
	requireLine(t, text, `podcastproc_schema_repair_attempts_total{content_type="titles"} 1`)
	requireLine(t, text, `podcastproc_content_outcomes_total{content_type="chapters",state="resolved"} 1`)
	requireLine(t, text, `podcastproc_chapters_dropped_total 2`)
	requireLine(t, text, `podcastproc_cache_lookups_total{result="miss"} 2`)
	requireLine(t, text, `podcastproc_completion_latency_seconds_count 3`)
}

func TestInstancesDoNotShareRegistry(t *testing.T) {
	a := metrics.New()
	b := metrics.New()
	a.RecordRepair("description")
	if strings.Contains(dump(t, b), "schema_repair_attempts_total{") {
		t.Fatal("expected isolated registries")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.RecordAttempt("success", 1)
	m.RecordOutcome("titles", "failed")
	if err := m.WriteTextfile("ignored"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestWriteTextfileRequiresPath(t *testing.T) {
	if err := metrics.New().WriteTextfile("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
