package artifacts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"podcastproc/internal/content"
	"podcastproc/internal/fileutil"
	"podcastproc/internal/generation"
	"podcastproc/internal/logging"
	"podcastproc/internal/transcript"
)

// Output file names.
const (
	TranscriptJSON = "transcript.json"
	TranscriptText = "transcript.txt"
	Description    = "description.md"
	Titles         = "titles.json"
	Chapters       = "chapters.txt"
	Failures       = "failures.json"
	lockName       = ".podcastproc.lock"
)

var contentFiles = map[generation.ContentType]string{
	generation.ContentDescription: Description,
	generation.ContentTitles:      Titles,
	generation.ContentChapters:    Chapters,
}

// Writer persists artifacts.
type Writer struct {
	logger *slog.Logger
	mode   os.FileMode
}

// NewWriter constructs a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{
		logger: logging.NewComponentLogger(logger, "artifacts"),
		mode:   0o644,
	}
}

// Write persists the transcript and every resolved content type into dir
// and returns the paths written.
func (w *Writer) Write(dir string, t *transcript.Transcript, res generation.Result) ([]string, error) {
	unlock, err := w.lock(dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	written, err := w.writeTranscript(dir, t)
	if err != nil {
		return written, err
	}

	b := res.Bundle
	for _, ct := range generation.ContentTypes {
		path := filepath.Join(dir, contentFiles[ct])
		if !res.Resolved(ct) {
			if err := fileutil.RemoveIfExists(path); err != nil {
				return written, fmt.Errorf("remove stale %s: %w", contentFiles[ct], err)
			}
			continue
		}
		var data []byte
		switch ct {
		case generation.ContentDescription:
			data = []byte(strings.TrimSpace(b.Description) + "\n")
		case generation.ContentTitles:
			data, err = marshalJSON(b.Titles)
		case generation.ContentChapters:
			data = []byte(content.ChaptersText(b.Chapters, t.Duration()))
		}
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", contentFiles[ct], err)
		}
		if err := w.put(path, data); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	failuresPath := filepath.Join(dir, Failures)
	if len(res.Failures) == 0 {
		if err := fileutil.RemoveIfExists(failuresPath); err != nil {
			return written, fmt.Errorf("remove stale %s: %w", Failures, err)
		}
	} else {
		data, err := marshalJSON(res.Failures)
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", Failures, err)
		}
		if err := w.put(failuresPath, data); err != nil {
			return written, err
		}
		written = append(written, failuresPath)
	}

	w.logger.Info("artifacts written",
		logging.String("dir", dir),
		logging.Int("files", len(written)),
		logging.Int("failed_types", len(res.Failures)),
	)
	return written, nil
}

// WriteTranscript persists only the transcript files.
func (w *Writer) WriteTranscript(dir string, t *transcript.Transcript) ([]string, error) {
	unlock, err := w.lock(dir)
	if err != nil {
		return nil, err
	}
	defer unlock()
	written, err := w.writeTranscript(dir, t)
	if err == nil {
		w.logger.Info("transcript written", logging.String("dir", dir), logging.Int("words", t.Len()))
	}
	return written, err
}

func (w *Writer) writeTranscript(dir string, t *transcript.Transcript) ([]string, error) {
	if t == nil {
		return nil, fmt.Errorf("write artifacts: transcript is nil")
	}
	data, err := transcript.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", TranscriptJSON, err)
	}
	jsonPath := filepath.Join(dir, TranscriptJSON)
	if err := w.put(jsonPath, append(data, '\n')); err != nil {
		return nil, err
	}
	textPath := filepath.Join(dir, TranscriptText)
	if err := w.put(textPath, []byte(TranscriptLines(t))); err != nil {
		return []string{jsonPath}, err
	}
	return []string{jsonPath, textPath}, nil
}

// lock creates dir and takes its exclusive writer lock.
func (w *Writer) lock(dir string) (func(), error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("write artifacts: output directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("output directory %s is in use by another run", dir)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			w.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}, nil
}

func (w *Writer) put(path string, data []byte) error {
	if err := fileutil.WriteFileAtomic(path, data, w.mode); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// TranscriptLines renders t as timestamped lines, one per recognizer
// sentence. Without sentences the words are grouped into lines of at most
// 30 seconds.
func TranscriptLines(t *transcript.Transcript) string {
	long := t.Duration() >= 3600
	stamp := func(seconds float64) string {
		return "[" + content.FormatTimestamp(int(math.Floor(seconds)), long) + "]"
	}

	var b strings.Builder
	if sentences := t.Sentences(); len(sentences) > 0 {
		for _, s := range sentences {
			if s.Text == "" {
				continue
			}
			fmt.Fprintf(&b, "%s %s\n", stamp(s.Start), s.Text)
		}
		return b.String()
	}

	const window = 30.0
	words := t.AllWords()
	for i := 0; i < len(words); {
		start := words[i].Start
		j := i
		parts := make([]string, 0, 64)
		for j < len(words) && (j == i || words[j].Start-start < window) {
			parts = append(parts, words[j].Text)
			j++
		}
		fmt.Fprintf(&b, "%s %s\n", stamp(start), strings.Join(parts, " "))
		i = j
	}
	return b.String()
}
