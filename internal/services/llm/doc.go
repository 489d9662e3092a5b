// Package llm provides an OpenRouter chat client for structured content
// generation.
//
// The generation pipeline uses it for three kinds of request: plain-text
// condensation of long transcript segments, JSON-mode structured requests
// (description, titles, chapters) and schema repair prompts.
//
// # Entry Points
//
// NewClient: construct client from Config and Options.
// Client.Complete: send system/user prompts, receive the raw text reply.
// Client.CompleteJSON: same, with JSON response format requested.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode a reply, stripping code fences and stray prose.
//
// # Retry Behaviour
//
// Attempts run through retry.Do. HTTP 408/429/5xx, network failures,
// undecodable gateway replies and empty content are transient and retried
// with jittered exponential backoff (base 2s, max 10s, 3 attempts, 60s total
// wait by default). Retry-After is honoured up to the max delay. Other 4xx
// responses and refusals are fatal and returned at once. Exhausted retries
// carry services.ErrTransientService.
//
// An issued request is detached from caller cancellation and bounded by the
// HTTP timeout; cancellation takes effect at the next backoff wait or
// attempt boundary.
package llm
