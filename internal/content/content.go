package content

import (
	"strings"
	"unicode"
)

// Title is one candidate video title.
type Title struct {
	Title         string `json:"title"`
	ThumbnailText string `json:"thumbnail_text"`
	Reasoning     string `json:"reasoning"`
}

// RawChapter is a chapter as proposed by the model, before alignment.
type RawChapter struct {
	// Quote is a phrase the model claims appears verbatim in the transcript.
	Quote string `json:"quote,omitempty"`
	// Position is a fraction of the recording in [0, 1].
	Position *float64 `json:"position,omitempty"`
	Label    string   `json:"title"`
	// Description is an optional one-line summary shown after the label.
	Description string `json:"description,omitempty"`
}

// DisplayLabel joins the label and description as "label - description".
func (c RawChapter) DisplayLabel() string {
	label := SingleLine(c.Label)
	if desc := SingleLine(c.Description); desc != "" {
		return label + " - " + desc
	}
	return label
}

// HasAnchor reports whether the chapter carries a quote or a position.
func (c RawChapter) HasAnchor() bool {
	return c.Quote != "" || c.Position != nil
}

// Chapter is an aligned chapter.
type Chapter struct {
	Timestamp float64 `json:"timestamp"`
	Label     string  `json:"title"`
}

// Bundle is the assembled output of a run. Fields of failed content types
// are left empty.
type Bundle struct {
	Description string    `json:"description,omitempty"`
	Titles      []Title   `json:"titles,omitempty"`
	Chapters    []Chapter `json:"chapters,omitempty"`
}

// SingleLine drops control characters and collapses every run of whitespace,
// line breaks included, to one space.
func SingleLine(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
