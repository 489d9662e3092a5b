package content

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"podcastproc/internal/services"
)

const hourSeconds = 3600

// FormatTimestamp renders whole seconds as MM:SS, or HH:MM:SS when long is
// set.
func FormatTimestamp(seconds int, long bool) string {
	seconds = max(seconds, 0)
	h := seconds / hourSeconds
	m := (seconds % hourSeconds) / 60
	s := seconds % 60
	if long {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, s)
}

// FormatChapters renders one line per chapter with the label flattened to a
// single line. Timestamps are floored to whole seconds; a line that would
// repeat or precede the previous second is bumped one second past it so the
// rendered list stays strictly increasing.
func FormatChapters(chapters []Chapter, duration float64) []string {
	seconds := make([]int, len(chapters))
	long := duration >= hourSeconds
	prev := -1
	for i, ch := range chapters {
		sec := max(int(math.Floor(ch.Timestamp)), prev+1)
		if sec >= hourSeconds {
			long = true
		}
		seconds[i] = sec
		prev = sec
	}
	lines := make([]string, 0, len(chapters))
	for i, ch := range chapters {
		lines = append(lines, FormatTimestamp(seconds[i], long)+" "+SingleLine(ch.Label))
	}
	return lines
}

// ChaptersText joins FormatChapters output with trailing newlines.
func ChaptersText(chapters []Chapter, duration float64) string {
	lines := FormatChapters(chapters, duration)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// ParseChapters reads chapter lines. Blank lines are skipped. Timestamps must
// be strictly increasing.
func ParseChapters(text string) ([]Chapter, error) {
	var chapters []Chapter
	prev := -1.0
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		stamp, label, ok := strings.Cut(line, " ")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, parseError(n+1, "missing label")
		}
		seconds, err := ParseTimestamp(stamp)
		if err != nil {
			return nil, parseError(n+1, err.Error())
		}
		if seconds <= prev {
			return nil, parseError(n+1, fmt.Sprintf("timestamp %s not after previous", stamp))
		}
		prev = seconds
		chapters = append(chapters, Chapter{Timestamp: seconds, Label: label})
	}
	return chapters, nil
}

// ParseTimestamp parses MM:SS or HH:MM:SS.
func ParseTimestamp(stamp string) (float64, error) {
	parts := strings.Split(stamp, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", stamp)
	}
	total := 0
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", stamp)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid timestamp %q", stamp)
		}
		total = total*60 + v
	}
	return float64(total), nil
}

func parseError(line int, reason string) error {
	return services.Wrap(services.ErrValidation, "chapters", "parse", fmt.Sprintf("line %d: %s", line, reason), nil)
}
