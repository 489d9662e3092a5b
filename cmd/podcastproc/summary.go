package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"podcastproc/internal/content"
	"podcastproc/internal/generation"
	"podcastproc/internal/language"
	"podcastproc/internal/transcript"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
	summaryTitles    = 5
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "FAILED"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderTranscriptPanel(t *transcript.Transcript, segments int, colorize bool) []string {
	lines := renderSectionHeader("Transcript", colorize)
	lines = append(lines,
		renderStatusLine("Duration", statusInfo, formatDuration(t.Duration()), colorize),
		renderStatusLine("Words", statusInfo, strconv.Itoa(t.Len()), colorize),
	)
	if segments > 0 {
		lines = append(lines, renderStatusLine("Segments", statusInfo, strconv.Itoa(segments), colorize))
	}
	lines = append(lines, renderStatusLine("Language", statusInfo, language.DisplayName(t.Language()), colorize))
	return lines
}

// renderRunSummary prints the transcript panel, per-type status, titles,
// chapters, and failures.
func renderRunSummary(out io.Writer, t *transcript.Transcript, res generation.Result, outDir string) {
	colorize := shouldColorize(out)
	lines := renderTranscriptPanel(t, res.Segments, colorize)

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Content", colorize)...)
	for _, ct := range generation.ContentTypes {
		if res.Resolved(ct) {
			lines = append(lines, renderStatusLine(string(ct), statusOK, resolvedDetail(ct, res), colorize))
			continue
		}
		reason := string(res.States[ct])
		if f, ok := res.Failure(ct); ok {
			reason = f.Kind
		}
		lines = append(lines, renderStatusLine(string(ct), statusError, reason, colorize))
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))

	if titles := res.Bundle.Titles; len(titles) > 0 {
		rows := make([][]string, 0, summaryTitles)
		for i, title := range titles {
			if i == summaryTitles {
				break
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), title.Title, title.ThumbnailText})
		}
		fmt.Fprintf(out, "\nTop titles (%d of %d)\n", len(rows), len(titles))
		fmt.Fprintln(out, renderTable([]string{"#", "Title", "Thumbnail"}, rows, []columnAlignment{alignRight}, []int{0, 60, 24}))
	}

	if chapters := res.Bundle.Chapters; len(chapters) > 0 {
		rows := make([][]string, 0, len(chapters))
		for _, line := range content.FormatChapters(chapters, t.Duration()) {
			stamp, label, _ := strings.Cut(line, " ")
			rows = append(rows, []string{stamp, label})
		}
		fmt.Fprintln(out, "\nChapters")
		fmt.Fprintln(out, renderTable([]string{"Time", "Chapter"}, rows, []columnAlignment{alignRight}, nil))
	}

	if len(res.Failures) > 0 {
		rows := make([][]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			rows = append(rows, []string{string(f.ContentType), f.Kind, f.Reason})
		}
		fmt.Fprintln(out, "\nFailures")
		fmt.Fprintln(out, renderTable([]string{"Content", "Kind", "Reason"}, rows, nil, []int{0, 0, 70}))
	}

	fmt.Fprintf(out, "\nArtifacts written to %s\n", outDir)
}

func resolvedDetail(ct generation.ContentType, res generation.Result) string {
	switch ct {
	case generation.ContentDescription:
		return fmt.Sprintf("%d characters", len([]rune(res.Bundle.Description)))
	case generation.ContentTitles:
		return fmt.Sprintf("%d titles", len(res.Bundle.Titles))
	case generation.ContentChapters:
		detail := fmt.Sprintf("%d chapters", len(res.Bundle.Chapters))
		if res.Alignment != nil && len(res.Alignment.Dropped) > 0 {
			detail += fmt.Sprintf(" (%d dropped)", len(res.Alignment.Dropped))
		}
		return detail
	}
	return ""
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%dh %02dm %02ds", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%dm %02ds", total/60, total%60)
}
