package generation

import (
	"time"

	"podcastproc/internal/align"
	"podcastproc/internal/content"
)

// ContentType names one generated artifact.
type ContentType string

const (
	ContentDescription ContentType = "description"
	ContentTitles      ContentType = "titles"
	ContentChapters    ContentType = "chapters"
)

// ContentTypes lists every content type in bundle order.
var ContentTypes = []ContentType{ContentDescription, ContentTitles, ContentChapters}

// State is a content type's position in its generation lifecycle.
type State string

const (
	StatePending    State = "pending"
	StateSegmenting State = "segmenting"
	StateRequesting State = "requesting"
	StateValidating State = "validating"
	StateResolved   State = "resolved"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateFailed
}

// Failure explains why a content type did not resolve.
type Failure struct {
	ContentType ContentType `json:"content_type"`
	Kind        string      `json:"kind"`
	Reason      string      `json:"reason"`
	Err         error       `json:"-"`
}

// Result is the outcome of one generation run.
type Result struct {
	Bundle   content.Bundle
	Failures []Failure
	States   map[ContentType]State
	// Alignment is set once chapters reach the aligner.
	Alignment *align.Result
	Segments  int
	Elapsed   time.Duration
}

// Resolved reports whether ct reached StateResolved.
func (r Result) Resolved(ct ContentType) bool {
	return r.States[ct] == StateResolved
}

// Failure returns the recorded failure for ct.
func (r Result) Failure(ct ContentType) (Failure, bool) {
	for _, f := range r.Failures {
		if f.ContentType == ct {
			return f, true
		}
	}
	return Failure{}, false
}

// Complete reports whether every content type resolved.
func (r Result) Complete() bool {
	return len(r.Failures) == 0
}
