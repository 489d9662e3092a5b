// Package main hosts the podcastproc CLI entrypoint and command graph.
//
// The Cobra-based command tree turns an audio recording into YouTube-ready
// artifacts: process transcribes and generates in one go, transcribe stops
// after the transcript, and generate reruns content generation from a saved
// transcript.json. status runs the preflight checks, and cache and config
// hold maintenance subcommands. The command context resolves configuration once and builds
// the completion client, transcriber, generation cache, and metrics lazily so
// commands only pay for what they use.
//
// Keep this package lean: behavior belongs in the internal packages; commands
// parse flags, call them, and render the run summary.
package main
