package segment_test

import (
	"fmt"
	"testing"

	"podcastproc/internal/segment"
	"podcastproc/internal/transcript"
)

func makeTranscript(t *testing.T, n int) *transcript.Transcript {
	t.Helper()
	words := make([]transcript.Word, n)
	for i := range words {
		words[i] = transcript.Word{Text: fmt.Sprintf("w%d", i), Start: float64(i), End: float64(i) + 0.5}
	}
	tr, err := transcript.New(words)
	if err != nil {
		t.Fatalf("transcript.New: %v", err)
	}
	return tr
}

func TestEstimateTokens(t *testing.T) {
	cases := map[int]int{0: 0, 1: 2, 2: 3, 3: 4, 10: 13, 100: 130}
	for words, want := range cases {
		if got := segment.EstimateTokens(words); got != want {
			t.Errorf("EstimateTokens(%d) = %d, want %d", words, got, want)
		}
	}
}

func TestSplitPartitionsExactly(t *testing.T) {
	for _, n := range []int{1, 7, 100, 1013} {
		for _, budget := range []int{2, 13, 50, 4000} {
			tr := makeTranscript(t, n)
			segments := segment.Split(tr, budget)

			var rebuilt []transcript.Word
			next := 0
			for i, seg := range segments {
				if seg.Index != i {
					t.Fatalf("n=%d budget=%d: segment %d has index %d", n, budget, i, seg.Index)
				}
				if seg.First != next {
					t.Fatalf("n=%d budget=%d: segment %d starts at %d, want %d", n, budget, i, seg.First, next)
				}
				if seg.Len() == 0 {
					t.Fatalf("n=%d budget=%d: empty segment %d", n, budget, i)
				}
				if seg.TokenEstimate > budget && !seg.Oversized {
					t.Fatalf("n=%d budget=%d: segment %d estimate %d over budget", n, budget, i, seg.TokenEstimate)
				}
				next += seg.Len()
				rebuilt = append(rebuilt, seg.Words...)
			}
			if len(rebuilt) != n {
				t.Fatalf("n=%d budget=%d: rebuilt %d words", n, budget, len(rebuilt))
			}
			for i, w := range rebuilt {
				if w != tr.Word(i) {
					t.Fatalf("n=%d budget=%d: word %d differs: %+v vs %+v", n, budget, i, w, tr.Word(i))
				}
			}
		}
	}
}

func TestSplitFillsSegmentsGreedily(t *testing.T) {
	tr := makeTranscript(t, 25)
	// ceil(10*1.3)=13 fits, ceil(11*1.3)=15 does not.
	segments := segment.Split(tr, 13)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[0].Len() != 10 || segments[1].Len() != 10 || segments[2].Len() != 5 {
		t.Fatalf("unexpected sizes %d %d %d", segments[0].Len(), segments[1].Len(), segments[2].Len())
	}
	if segments[1].Start() != 10 || segments[1].End() != 19.5 {
		t.Fatalf("unexpected span %v-%v", segments[1].Start(), segments[1].End())
	}
}

func TestSplitFlagsOversizedWord(t *testing.T) {
	tr := makeTranscript(t, 3)
	segments := segment.Split(tr, 1)
	if len(segments) != 3 {
		t.Fatalf("expected one segment per word, got %d", len(segments))
	}
	for _, seg := range segments {
		if !seg.Oversized || seg.Len() != 1 {
			t.Fatalf("expected oversized single-word segment, got %+v", seg)
		}
	}
}

func TestSplitUnlimitedBudget(t *testing.T) {
	tr := makeTranscript(t, 40)
	segments := segment.Split(tr, 0)
	if len(segments) != 1 || segments[0].Len() != 40 || segments[0].Oversized {
		t.Fatalf("expected single segment, got %+v", segments)
	}
}

func TestSplitEmptyTranscript(t *testing.T) {
	tr := makeTranscript(t, 0)
	if segments := segment.Split(tr, 10); segments != nil {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
}
