package textutil_test

import (
	"testing"

	"podcastproc/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Episode 12: The Return", "Episode 12- The Return"},
		{"What? Really*", "What Really-"},
		{"  spaced\tout   name ", "spaced out name"},
		{"..hidden", "hidden"},
		{"a/b\\c", "a-b-c"},
		{"bell\x07", "bell"},
		{"???", textutil.FallbackName},
		{"", textutil.FallbackName},
	}
	for _, tt := range tests {
		if got := textutil.SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStemOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/audio/show: ep 1.mp3", "show- ep 1"},
		{"episode.final.wav", "episode.final"},
		{"noext", "noext"},
		{".m4a", "m4a"},
	}
	for _, tt := range tests {
		if got := textutil.StemOf(tt.in); got != tt.want {
			t.Errorf("StemOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
