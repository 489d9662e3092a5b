// Package transcript holds the word-timed transcript that every later stage
// reads.
//
// A Transcript is built once by New, which validates word timing (finite,
// non-negative, start <= end, starts non-decreasing) and copies its input.
// After construction it is read-only: accessors return copies, so a single
// value may be shared across goroutines.
//
// FullText joins the trimmed word texts with single spaces. Offset and
// WordAtOffset translate between word indices and byte offsets in that text,
// which is how quote matches are mapped back onto audio time.
//
// Load reads either the saved transcript.json layout or raw WhisperX JSON;
// Save writes the former.
package transcript
