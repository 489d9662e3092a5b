package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"podcastproc/internal/services"
)

// fileWord accepts both the saved layout and WhisperX output, where
// unaligned tokens (often numerals) lack timing and confidence is "score".
type fileWord struct {
	Word        string   `json:"word"`
	Start       *float64 `json:"start"`
	End         *float64 `json:"end"`
	Probability *float64 `json:"probability,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

type fileSegment struct {
	Start float64    `json:"start"`
	End   float64    `json:"end"`
	Text  string     `json:"text"`
	Words []fileWord `json:"words,omitempty"`
}

type filePayload struct {
	Segments []fileSegment `json:"segments"`
	Words    []fileWord    `json:"words"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
}

// Load reads a transcript from path.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	t, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", path, err)
	}
	return t, nil
}

// Decode parses transcript JSON. Top-level words win; otherwise words are
// gathered from segments in order.
func Decode(data []byte) (*Transcript, error) {
	var payload filePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "decode", "invalid json", err)
	}
	raw := payload.Words
	if len(raw) == 0 {
		for _, seg := range payload.Segments {
			raw = append(raw, seg.Words...)
		}
	}
	sentences := make([]Sentence, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		sentences = append(sentences, Sentence{Start: seg.Start, End: seg.End, Text: strings.TrimSpace(seg.Text)})
	}
	return New(fillTiming(raw), WithLanguage(payload.Language), WithSentences(sentences))
}

// fillTiming drops blank tokens, places untimed tokens as zero-length spans
// at the previous word's end, and clamps starts so they never run backward.
func fillTiming(raw []fileWord) []Word {
	words := make([]Word, 0, len(raw))
	prevStart, prevEnd := 0.0, 0.0
	for _, fw := range raw {
		text := strings.TrimSpace(fw.Word)
		if text == "" {
			continue
		}
		w := Word{Text: text, Start: prevEnd, End: prevEnd, Probability: fw.Probability}
		if w.Probability == nil {
			w.Probability = fw.Score
		}
		if fw.Start != nil {
			w.Start = *fw.Start
			w.End = w.Start
		}
		if fw.End != nil {
			w.End = *fw.End
		}
		w.Start = max(w.Start, prevStart)
		w.End = max(w.End, w.Start)
		words = append(words, w)
		prevStart, prevEnd = w.Start, w.End
	}
	return words
}

// Marshal encodes t in the saved transcript.json layout.
func Marshal(t *Transcript) ([]byte, error) {
	payload := filePayload{
		Segments: make([]fileSegment, 0, len(t.sentences)),
		Words:    make([]fileWord, 0, t.Len()),
		Language: t.Language(),
		Duration: t.Duration(),
	}
	for _, s := range t.sentences {
		payload.Segments = append(payload.Segments, fileSegment{Start: s.Start, End: s.End, Text: s.Text})
	}
	for _, w := range t.words {
		start, end := w.Start, w.End
		payload.Words = append(payload.Words, fileWord{Word: w.Text, Start: &start, End: &end, Probability: w.Probability})
	}
	return json.MarshalIndent(payload, "", "  ")
}
