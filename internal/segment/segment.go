// Package segment splits a transcript into ordered, token-bounded segments.
package segment

import (
	"math"

	"podcastproc/internal/transcript"
)

// TokensPerWord is the fixed token estimate per word.
const TokensPerWord = 1.3

// Segment is a contiguous run of transcript words.
type Segment struct {
	// Index is the zero-based position of the segment.
	Index int
	// First is the transcript index of the segment's first word.
	First int
	Words []transcript.Word
	// TokenEstimate is EstimateTokens(len(Words)).
	TokenEstimate int
	// Oversized marks a single word whose estimate alone exceeds the budget.
	Oversized bool
}

// Len reports the number of words in the segment.
func (s Segment) Len() int { return len(s.Words) }

// Start is the first word's start time.
func (s Segment) Start() float64 {
	if len(s.Words) == 0 {
		return 0
	}
	return s.Words[0].Start
}

// End is the last word's end time.
func (s Segment) End() float64 {
	if len(s.Words) == 0 {
		return 0
	}
	return s.Words[len(s.Words)-1].End
}

// EstimateTokens returns ceil(words * TokensPerWord).
func EstimateTokens(words int) int {
	if words <= 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * TokensPerWord))
}

// Split partitions t in order so that concatenating the segments' words
// reproduces the transcript exactly. A segment closes when adding the next
// word would push its estimate past budget. A budget <= 0 means unlimited.
func Split(t *transcript.Transcript, budget int) []Segment {
	n := t.Len()
	if n == 0 {
		return nil
	}
	if budget <= 0 {
		return []Segment{build(t, 0, 0, n, false)}
	}

	var segments []Segment
	first := 0
	for first < n {
		count := 1
		for first+count < n && EstimateTokens(count+1) <= budget {
			count++
		}
		oversized := count == 1 && EstimateTokens(1) > budget
		segments = append(segments, build(t, len(segments), first, first+count, oversized))
		first += count
	}
	return segments
}

func build(t *transcript.Transcript, index, from, to int, oversized bool) Segment {
	return Segment{
		Index:         index,
		First:         from,
		Words:         t.Words(from, to),
		TokenEstimate: EstimateTokens(to - from),
		Oversized:     oversized,
	}
}
