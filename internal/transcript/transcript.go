package transcript

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"podcastproc/internal/services"
)

// Word is a single recognized word with its audio span in seconds.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	// Probability is the recognizer confidence when known. It never affects
	// timing.
	Probability *float64 `json:"probability,omitempty"`
}

// Sentence is a recognizer-provided text span used for display only.
type Sentence struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is an immutable, ordered list of timed words.
type Transcript struct {
	words     []Word
	sentences []Sentence
	language  string
	fullText  string
	offsets   []int
}

// Option customizes a Transcript at construction.
type Option func(*Transcript)

// WithLanguage records the detected language code.
func WithLanguage(language string) Option {
	return func(t *Transcript) {
		t.language = strings.TrimSpace(language)
	}
}

// WithSentences attaches recognizer sentence spans.
func WithSentences(sentences []Sentence) Option {
	return func(t *Transcript) {
		t.sentences = append([]Sentence(nil), sentences...)
	}
}

// New validates words and returns a Transcript that owns a copy of them.
func New(words []Word, opts ...Option) (*Transcript, error) {
	t := &Transcript{
		words:   make([]Word, len(words)),
		offsets: make([]int, len(words)),
	}
	var b strings.Builder
	prevStart := 0.0
	for i, w := range words {
		text := strings.TrimSpace(w.Text)
		switch {
		case text == "":
			return nil, invalid(i, "empty text")
		case !finite(w.Start) || !finite(w.End):
			return nil, invalid(i, "non-finite timing")
		case w.Start < 0:
			return nil, invalid(i, fmt.Sprintf("negative start %.3f", w.Start))
		case w.Start > w.End:
			return nil, invalid(i, fmt.Sprintf("start %.3f after end %.3f", w.Start, w.End))
		case i > 0 && w.Start < prevStart:
			return nil, invalid(i, fmt.Sprintf("start %.3f before previous start %.3f", w.Start, prevStart))
		}
		prevStart = w.Start
		w.Text = text
		if w.Probability != nil {
			p := *w.Probability
			w.Probability = &p
		}
		t.words[i] = w
		if i > 0 {
			b.WriteByte(' ')
		}
		t.offsets[i] = b.Len()
		b.WriteString(text)
	}
	t.fullText = b.String()
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func invalid(index int, reason string) error {
	return services.Wrap(services.ErrValidation, "transcript", "new", fmt.Sprintf("word %d: %s", index, reason), nil)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Len reports the number of words.
func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.words)
}

// Word returns the word at index i.
func (t *Transcript) Word(i int) Word {
	w := t.words[i]
	if w.Probability != nil {
		p := *w.Probability
		w.Probability = &p
	}
	return w
}

// Words returns a copy of the words in [from, to).
func (t *Transcript) Words(from, to int) []Word {
	if t == nil {
		return nil
	}
	from = max(from, 0)
	to = min(to, len(t.words))
	if from >= to {
		return nil
	}
	out := make([]Word, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, t.Word(i))
	}
	return out
}

// AllWords returns a copy of every word.
func (t *Transcript) AllWords() []Word {
	return t.Words(0, t.Len())
}

// FullText returns the space-joined word texts.
func (t *Transcript) FullText() string {
	if t == nil {
		return ""
	}
	return t.fullText
}

// Text returns the space-joined texts of words in [from, to).
func (t *Transcript) Text(from, to int) string {
	if t == nil {
		return ""
	}
	from = max(from, 0)
	to = min(to, len(t.words))
	if from >= to {
		return ""
	}
	end := len(t.fullText)
	if to < len(t.words) {
		end = t.offsets[to] - 1
	}
	return t.fullText[t.offsets[from]:end]
}

// Duration is the end time of the last word, or zero when empty.
func (t *Transcript) Duration() float64 {
	if t == nil || len(t.words) == 0 {
		return 0
	}
	return t.words[len(t.words)-1].End
}

// Language returns the detected language code, if any.
func (t *Transcript) Language() string {
	if t == nil {
		return ""
	}
	return t.language
}

// Sentences returns a copy of the recognizer sentence spans.
func (t *Transcript) Sentences() []Sentence {
	if t == nil {
		return nil
	}
	return append([]Sentence(nil), t.sentences...)
}

// Offset returns the byte offset of word i within FullText.
func (t *Transcript) Offset(i int) int {
	return t.offsets[i]
}

// WordAtOffset returns the index of the word containing byte offset off of
// FullText. Offsets on a separator map to the preceding word. It returns -1
// for an empty transcript or an out-of-range offset.
func (t *Transcript) WordAtOffset(off int) int {
	if t.Len() == 0 || off < 0 || off >= len(t.fullText) {
		return -1
	}
	// First word starting after off, minus one.
	return sort.Search(len(t.offsets), func(i int) bool { return t.offsets[i] > off }) - 1
}

// WordAtOrAfter returns the index of the first word whose start is at or
// after seconds, or -1 when no such word exists.
func (t *Transcript) WordAtOrAfter(seconds float64) int {
	n := t.Len()
	i := sort.Search(n, func(i int) bool { return t.words[i].Start >= seconds })
	if i == n {
		return -1
	}
	return i
}
