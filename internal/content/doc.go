// Package content defines the generated artifacts of a run and the YouTube
// chapter-line codec.
//
// RawChapter is untrusted model output: a label plus a verbatim quote, a
// fractional position, or both. Chapter is the aligned form with an audio
// timestamp. Bundle groups whatever content types resolved in a run.
//
// FormatChapters renders "MM:SS label" lines, switching every line to
// "HH:MM:SS" once the recording reaches one hour. ParseChapters reads either
// form back.
package content
