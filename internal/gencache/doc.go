// Package gencache persists validated generation replies in SQLite so a
// re-run over the same transcript, model, and options reuses them instead of
// calling the completion service again.
package gencache
