// Package services defines shared utilities consumed by the generation pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, content types, and segment indexes
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline taxonomy (transient service, fatal service, schema
//     validation, alignment).
//
// Use these helpers when wiring new pipeline steps so operational behaviour
// (error handling, observability, retries) stays uniform across content types.
package services
