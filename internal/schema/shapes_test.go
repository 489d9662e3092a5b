package schema_test

import (
	"strings"
	"testing"

	"podcastproc/internal/schema"
)

func TestDescriptionShape(t *testing.T) {
	parse := schema.DescriptionShape().Parse
	if got, err := parse("Here you go:\n{\"description\": \"  Hello there.  \"}"); err != nil || got != "Hello there." {
		t.Fatalf("expected prose-wrapped reply to parse, got %q %v", got, err)
	}
	tooLong := `{"description":"` + strings.Repeat("a", schema.MaxDescriptionRunes+1) + `"}`
	bad := map[string]string{
		"empty":      "",
		"missing":    `{"summary":"x"}`,
		"blank":      `{"description":"   "}`,
		"wrong type": `{"description": 42}`,
		"too long":   tooLong,
		"truncated":  `{"description": "cut off`,
	}
	for name, raw := range bad {
		if _, err := parse(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestTitlesShapeEnforcesCardinalityAndFields(t *testing.T) {
	parse := schema.TitlesShape(2).Parse
	ok := `{"titles":[{"title":"A","thumbnail_text":"ONE"},{"title":"B","thumbnail_text":"TWO","reasoning":"r"}]}`
	titles, err := parse(ok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if titles[0].Reasoning != "" || titles[1].ThumbnailText != "TWO" {
		t.Fatalf("unexpected titles %+v", titles)
	}
	bad := map[string]string{
		"too few":       `{"titles":[{"title":"A","thumbnail_text":"ONE"}]}`,
		"missing thumb": `{"titles":[{"title":"A"},{"title":"B","thumbnail_text":"TWO"}]}`,
		"numeric title": `{"titles":[{"title":1,"thumbnail_text":"ONE"},{"title":"B","thumbnail_text":"TWO"}]}`,
		"array root":    `[{"title":"A","thumbnail_text":"ONE"},{"title":"B","thumbnail_text":"TWO"}]`,
		"long title":    `{"titles":[{"title":"` + strings.Repeat("t", schema.MaxTitleRunes+1) + `","thumbnail_text":"ONE"},{"title":"B","thumbnail_text":"TWO"}]}`,
	}
	for name, raw := range bad {
		if _, err := parse(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestChaptersShape(t *testing.T) {
	parse := schema.ChaptersShape(3).Parse
	chapters, err := parse(`{"chapters":[{"quote":" welcome back ","title":"Intro"},{"position":0.5,"title":"Middle"},{"quote":"so therefore","position":0.9,"title":"End"}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if chapters[0].Quote != "welcome back" || chapters[0].Position != nil {
		t.Fatalf("unexpected first chapter %+v", chapters[0])
	}
	if chapters[1].Position == nil || *chapters[1].Position != 0.5 {
		t.Fatalf("unexpected second chapter %+v", chapters[1])
	}
	bad := map[string]string{
		"empty list":      `{"chapters":[]}`,
		"too many":        `{"chapters":[{"position":0,"title":"a"},{"position":0.2,"title":"b"},{"position":0.4,"title":"c"},{"position":0.6,"title":"d"}]}`,
		"no anchor":       `{"chapters":[{"title":"a"}]}`,
		"bad position":    `{"chapters":[{"position":1.5,"title":"a"}]}`,
		"string position": `{"chapters":[{"position":"0.5","title":"a"}]}`,
		"missing title":   `{"chapters":[{"quote":"hello"}]}`,
	}
	for name, raw := range bad {
		if _, err := parse(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestChaptersShapeFlattensMultilineFields(t *testing.T) {
	chapters, err := schema.ChaptersShape(5).Parse(`{"chapters":[{"position":0,"title":"Intro"},{"position":0.5,"title":"Deep dive\n12:00 fake","description":"tomatoes\r\nand sun"}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := chapters[1].Label; got != "Deep dive 12:00 fake" {
		t.Fatalf("expected single-line title, got %q", got)
	}
	if got := chapters[1].DisplayLabel(); got != "Deep dive 12:00 fake - tomatoes and sun" {
		t.Fatalf("unexpected display label %q", got)
	}
	if _, err := schema.ChaptersShape(5).Parse(`{"chapters":[{"position":0,"title":"\n\t\u0000"}]}`); err == nil {
		t.Fatal("a title of only whitespace and control characters must fail")
	}
}

func TestTitlesShapeFlattensMultilineFields(t *testing.T) {
	titles, err := schema.TitlesShape(1).Parse(`{"titles":[{"title":"Grow\nMore","thumbnail_text":"BIG\r\nTOMATO"}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if titles[0].Title != "Grow More" || titles[0].ThumbnailText != "BIG TOMATO" {
		t.Fatalf("unexpected titles %+v", titles)
	}
}

func TestShapesRejectMiscasedKeys(t *testing.T) {
	cases := map[string]func() error{
		"description": func() error {
			_, err := schema.DescriptionShape().Parse(`{"Description":"hello"}`)
			return err
		},
		"titles root": func() error {
			_, err := schema.TitlesShape(1).Parse(`{"TITLES":[{"title":"A","thumbnail_text":"B"}]}`)
			return err
		},
		"titles item": func() error {
			_, err := schema.TitlesShape(1).Parse(`{"titles":[{"Title":"A","thumbnail_text":"B"}]}`)
			return err
		},
		"chapters item": func() error {
			_, err := schema.ChaptersShape(2).Parse("```json\n{\"chapters\":[{\"Quote\":\"hi\",\"title\":\"A\"}]}\n```")
			return err
		},
	}
	for name, parse := range cases {
		err := parse()
		if err == nil || !strings.Contains(err.Error(), "case-sensitive") {
			t.Errorf("%s: expected case-sensitive key error, got %v", name, err)
		}
	}
	if _, err := schema.DescriptionShape().Parse(`{"description":"hello","Extra":1}`); err != nil {
		t.Fatalf("unknown fields are still tolerated: %v", err)
	}
}
