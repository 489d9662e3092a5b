// Package schema validates structured model replies and drives the bounded
// repair loop.
//
// A Shape describes one expected reply: a name used in errors and logs, a
// human-readable description embedded in repair prompts, and a strict Parse
// function. Validate parses the raw reply; on failure it asks the Repairer to
// fix the reply, passing the raw text, the exact validation error and the
// expected shape, up to the configured number of repair attempts. A reply
// that is still invalid yields an error marked services.ErrSchemaValidation.
//
// Parsing tolerates transport noise only (code fences, prose around the JSON
// object). Field values are never coerced: a number where a string belongs
// is an error, not a conversion.
package schema
