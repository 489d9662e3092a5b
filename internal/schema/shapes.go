package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"podcastproc/internal/content"
	"podcastproc/internal/services/llm"
)

// Limits enforced by the shapes.
const (
	MaxDescriptionRunes = 5000
	MaxTitleRunes       = 100
)

// DescriptionShape accepts {"description": string}.
func DescriptionShape() Shape[string] {
	return Shape[string]{
		Name: "description",
		Describe: fmt.Sprintf(`A JSON object with exactly this structure:
{"description": "<the full description text, at most %d characters>"}`, MaxDescriptionRunes),
		Parse: parseDescription,
	}
}

func parseDescription(raw string) (string, error) {
	var payload struct {
		Description *string `json:"description"`
	}
	if err := decode(raw, &payload, "description"); err != nil {
		return "", err
	}
	if payload.Description == nil {
		return "", errors.New("description: required field missing")
	}
	text := strings.TrimSpace(*payload.Description)
	if text == "" {
		return "", errors.New("description: must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxDescriptionRunes {
		return "", fmt.Errorf("description: %d characters exceeds limit of %d", n, MaxDescriptionRunes)
	}
	return text, nil
}

// TitlesShape accepts {"titles": [...]} with exactly count entries.
func TitlesShape(count int) Shape[[]content.Title] {
	return Shape[[]content.Title]{
		Name: "titles",
		Describe: fmt.Sprintf(`A JSON object with exactly this structure:
{"titles": [{"title": "<video title, at most %d characters>", "thumbnail_text": "<2-4 words>", "reasoning": "<why it works>"}]}
The "titles" array must contain exactly %d entries. "title" and "thumbnail_text" must be non-empty strings.`, MaxTitleRunes, count),
		Parse: func(raw string) ([]content.Title, error) {
			return parseTitles(raw, count)
		},
	}
}

func parseTitles(raw string, count int) ([]content.Title, error) {
	var payload struct {
		Titles *[]struct {
			Title         *string `json:"title"`
			ThumbnailText *string `json:"thumbnail_text"`
			Reasoning     *string `json:"reasoning"`
		} `json:"titles"`
	}
	if err := decode(raw, &payload, "titles", "title", "thumbnail_text", "reasoning"); err != nil {
		return nil, err
	}
	if payload.Titles == nil {
		return nil, errors.New("titles: required field missing")
	}
	items := *payload.Titles
	if len(items) != count {
		return nil, fmt.Errorf("titles: expected exactly %d entries, got %d", count, len(items))
	}
	out := make([]content.Title, 0, len(items))
	for i, item := range items {
		title, err := requiredLine(item.Title, fmt.Sprintf("titles[%d].title", i))
		if err != nil {
			return nil, err
		}
		if n := utf8.RuneCountInString(title); n > MaxTitleRunes {
			return nil, fmt.Errorf("titles[%d].title: %d characters exceeds limit of %d", i, n, MaxTitleRunes)
		}
		thumb, err := requiredLine(item.ThumbnailText, fmt.Sprintf("titles[%d].thumbnail_text", i))
		if err != nil {
			return nil, err
		}
		var reasoning string
		if item.Reasoning != nil {
			reasoning = strings.TrimSpace(*item.Reasoning)
		}
		out = append(out, content.Title{Title: title, ThumbnailText: thumb, Reasoning: reasoning})
	}
	return out, nil
}

// ChaptersShape accepts {"chapters": [...]} with 1..maxCount entries, each
// carrying a quote, a position, or both.
func ChaptersShape(maxCount int) Shape[[]content.RawChapter] {
	return Shape[[]content.RawChapter]{
		Name: "chapters",
		Describe: fmt.Sprintf(`A JSON object with exactly this structure:
{"chapters": [{"quote": "<5-12 words copied verbatim from the transcript where the chapter begins>", "position": <number between 0.0 and 1.0>, "title": "<2-6 word chapter title>", "description": "<optional one-line summary>"}]}
Between 1 and %d entries, in order. Each entry needs a non-empty single-line "title" and at least one of "quote" or "position".`, maxCount),
		Parse: func(raw string) ([]content.RawChapter, error) {
			return parseChapters(raw, maxCount)
		},
	}
}

func parseChapters(raw string, maxCount int) ([]content.RawChapter, error) {
	var payload struct {
		Chapters *[]struct {
			Quote    *string  `json:"quote"`
			Position *float64 `json:"position"`
			Title       *string  `json:"title"`
			Description *string  `json:"description"`
		} `json:"chapters"`
	}
	if err := decode(raw, &payload, "chapters", "quote", "position", "title", "description"); err != nil {
		return nil, err
	}
	if payload.Chapters == nil {
		return nil, errors.New("chapters: required field missing")
	}
	items := *payload.Chapters
	if len(items) == 0 {
		return nil, errors.New("chapters: expected at least 1 entry")
	}
	if maxCount > 0 && len(items) > maxCount {
		return nil, fmt.Errorf("chapters: expected at most %d entries, got %d", maxCount, len(items))
	}
	out := make([]content.RawChapter, 0, len(items))
	for i, item := range items {
		label, err := requiredLine(item.Title, fmt.Sprintf("chapters[%d].title", i))
		if err != nil {
			return nil, err
		}
		ch := content.RawChapter{Label: label}
		if item.Description != nil {
			ch.Description = content.SingleLine(*item.Description)
		}
		if item.Quote != nil {
			ch.Quote = strings.TrimSpace(*item.Quote)
		}
		if item.Position != nil {
			p := *item.Position
			if math.IsNaN(p) || p < 0 || p > 1 {
				return nil, fmt.Errorf("chapters[%d].position: %v outside [0, 1]", i, p)
			}
			ch.Position = &p
		}
		if !ch.HasAnchor() {
			return nil, fmt.Errorf("chapters[%d]: needs a quote or a position", i)
		}
		out = append(out, ch)
	}
	return out, nil
}

// decode parses the reply into target. keys lists the field names of the
// shape; a key that matches one only case-insensitively is rejected because
// encoding/json would otherwise accept it silently.
func decode(raw string, target any, keys ...string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("reply is empty")
	}
	if !strings.Contains(llm.ExtractJSONPayload(raw), "{") {
		return fmt.Errorf("reply contains no JSON object: %s", llm.SummarizeSnippet(raw))
	}
	if err := llm.DecodeLLMJSON(raw, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return fmt.Errorf("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return checkKeyCase(raw, keys)
}

func checkKeyCase(raw string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	var tree any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &tree); err != nil {
		if err := json.Unmarshal([]byte(llm.ExtractJSONPayload(raw)), &tree); err != nil {
			return nil
		}
	}
	return walkKeys(tree, keys)
}

func walkKeys(node any, keys []string) error {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			for _, want := range keys {
				if k != want && strings.EqualFold(k, want) {
					return fmt.Errorf("%s: unexpected key %q (keys are case-sensitive)", want, k)
				}
			}
			if err := walkKeys(child, keys); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range v {
			if err := walkKeys(child, keys); err != nil {
				return err
			}
		}
	}
	return nil
}

// requiredLine reads a non-empty single-line field. Embedded line breaks and
// control characters are collapsed.
func requiredLine(value *string, field string) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%s: required field missing", field)
	}
	text := content.SingleLine(*value)
	if text == "" {
		return "", fmt.Errorf("%s: must not be empty", field)
	}
	return text, nil
}
