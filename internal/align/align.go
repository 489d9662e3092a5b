package align

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"podcastproc/internal/content"
	"podcastproc/internal/services"
	"podcastproc/internal/transcript"
)

// Method records how a chapter was placed.
type Method string

const (
	MethodQuote    Method = "quote"
	MethodPosition Method = "position"
)

// Placement describes how one resolved chapter was derived.
type Placement struct {
	// Index is the raw chapter's position in the input.
	Index  int
	Method Method
	// Word is the transcript index the timestamp was taken from.
	Word int
	// Advanced is set when the chapter was pushed later to stay ordered.
	Advanced bool
}

// Dropped is a raw chapter that could not be placed.
type Dropped struct {
	Index   int
	Chapter content.RawChapter
	Err     error
}

// Result is the outcome of an alignment pass.
type Result struct {
	Chapters   []content.Chapter
	Placements []Placement
	Dropped    []Dropped
}

// Align resolves raw chapters against t.
func Align(raw []content.RawChapter, t *transcript.Transcript) Result {
	var res Result
	if t.Len() == 0 {
		for i, ch := range raw {
			res.Dropped = append(res.Dropped, Dropped{Index: i, Chapter: ch, Err: alignError(i, "transcript is empty")})
		}
		return res
	}

	idx := newIndex(t)
	cursor := 0
	prevWord, prevTime := -1, 0.0
	for i, ch := range raw {
		word, method, ok := idx.locate(ch, cursor)
		if !ok {
			res.Dropped = append(res.Dropped, Dropped{Index: i, Chapter: ch, Err: alignError(i, "quote not found and no position given")})
			continue
		}
		cursor = word + 1

		placement := Placement{Index: i, Method: method, Word: word}
		var stamp float64
		if len(res.Chapters) == 0 {
			// The first chapter always opens the video; its anchor still
			// orders the chapters after it.
			stamp = 0
			prevWord, prevTime = word, t.Word(word).Start
		} else {
			start := t.Word(word).Start
			if word <= prevWord || start <= prevTime {
				next := idx.firstAfter(prevWord, prevTime)
				if next < 0 {
					res.Dropped = append(res.Dropped, Dropped{Index: i, Chapter: ch, Err: alignError(i, fmt.Sprintf("no word after %.3fs to keep chapters ordered", prevTime))})
					continue
				}
				word, start = next, t.Word(next).Start
				placement.Word = word
				placement.Advanced = true
				cursor = max(cursor, word+1)
			}
			stamp = start
			prevWord, prevTime = word, start
		}
		res.Chapters = append(res.Chapters, content.Chapter{Timestamp: stamp, Label: ch.DisplayLabel()})
		res.Placements = append(res.Placements, placement)
	}
	return res
}

func alignError(index int, reason string) error {
	return services.Wrap(services.ErrAlignment, "align", fmt.Sprintf("chapter %d", index), reason, nil)
}

// index is the case-folded, punctuation-trimmed view of a transcript used for
// quote search.
type index struct {
	t       *transcript.Transcript
	text    string
	offsets []int
}

func newIndex(t *transcript.Transcript) *index {
	folder := cases.Fold()
	idx := &index{t: t, offsets: make([]int, t.Len())}
	var b strings.Builder
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		idx.offsets[i] = b.Len()
		b.WriteString(normalizeToken(folder, t.Word(i).Text))
	}
	idx.text = b.String()
	return idx
}

func normalizeToken(folder cases.Caser, token string) string {
	folded := folder.String(token)
	trimmed := strings.TrimFunc(folded, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if trimmed == "" {
		return folded
	}
	return trimmed
}

func normalizeQuote(quote string) string {
	folder := cases.Fold()
	fields := strings.Fields(quote)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, normalizeToken(folder, f))
	}
	return strings.Join(out, " ")
}

// locate returns the word a raw chapter points at.
func (x *index) locate(ch content.RawChapter, cursor int) (int, Method, bool) {
	if q := normalizeQuote(ch.Quote); q != "" {
		if off, ok := x.find(q, cursor); ok {
			return x.wordAt(off), MethodQuote, true
		}
	}
	if ch.Position != nil {
		target := *ch.Position * x.t.Duration()
		word := x.t.WordAtOrAfter(target)
		if word < 0 {
			word = x.t.Len() - 1
		}
		return word, MethodPosition, true
	}
	return 0, "", false
}

// find searches for q, preferring whole-word matches at or after the cursor
// word, then any match from the cursor, then the same two passes from the
// beginning.
func (x *index) find(q string, cursor int) (int, bool) {
	from := len(x.text)
	if cursor < len(x.offsets) {
		from = x.offsets[cursor]
	}
	passes := []struct {
		from  int
		whole bool
	}{{from, true}, {from, false}, {0, true}, {0, false}}
	for _, p := range passes {
		if off, ok := x.search(q, p.from, p.whole); ok {
			return off, true
		}
	}
	return 0, false
}

func (x *index) search(q string, from int, whole bool) (int, bool) {
	for from <= len(x.text) {
		i := strings.Index(x.text[from:], q)
		if i < 0 {
			return 0, false
		}
		off := from + i
		if !whole || x.isWordBoundary(off, off+len(q)) {
			return off, true
		}
		from = off + 1
	}
	return 0, false
}

func (x *index) isWordBoundary(start, end int) bool {
	return (start == 0 || x.text[start-1] == ' ') && (end == len(x.text) || x.text[end] == ' ')
}

func (x *index) wordAt(off int) int {
	return sort.Search(len(x.offsets), func(i int) bool { return x.offsets[i] > off }) - 1
}

// firstAfter returns the first word after prevWord starting strictly after
// prevTime, or -1.
func (x *index) firstAfter(prevWord int, prevTime float64) int {
	for j := prevWord + 1; j < x.t.Len(); j++ {
		if x.t.Word(j).Start > prevTime {
			return j
		}
	}
	return -1
}
