package textutil

import (
	"strings"
	"unicode"
)

// FallbackName is returned when nothing usable survives sanitizing.
const FallbackName = "episode"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes name safe as a single path segment. Slashes,
// backslashes, colons, and asterisks become dashes; other unsafe characters
// and control characters are removed; runs of whitespace collapse to one
// space. Leading dots are stripped so the result is never hidden.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, fileNameReplacer.Replace(name))
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimLeft(name, ". ")
	if name == "" {
		return FallbackName
	}
	return name
}

// StemOf returns the sanitized file name of path without its extension.
func StemOf(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return SanitizeFileName(base)
}
