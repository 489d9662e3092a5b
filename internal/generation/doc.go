// Package generation orchestrates description, titles, and chapters
// generation for a transcript.
//
// Each content type moves through pending, segmenting, requesting,
// validating, and finally resolved or failed. Types run concurrently under a
// small worker limit and never block one another; the Result carries the
// bundle of whatever resolved plus a failure record for everything that did
// not. Long transcripts are split into token-bounded segments: description
// and titles work from per-segment notes, chapters are requested per segment
// and aligned against the whole transcript.
package generation
