// Package textutil sanitizes names derived from audio files so they are safe
// to use as output directory names.
package textutil
