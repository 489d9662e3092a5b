// Package language normalizes the language hints podcastproc passes to
// WhisperX and shows in run summaries.
package language
