// Package artifacts persists a run's outputs into an episode directory.
//
// Files written:
//
//	transcript.json  word-timed transcript (reloadable with transcript.Load)
//	transcript.txt   timestamped sentences for reading
//	description.md   YouTube description
//	titles.json      candidate titles with thumbnail text
//	chapters.txt     YouTube chapter lines
//	failures.json    content types that failed and why (only when any failed)
//
// A directory lock serializes concurrent writers, and every file is replaced
// atomically. Files for content types that failed in the current run are
// removed so the directory never mixes outputs from different runs.
package artifacts
