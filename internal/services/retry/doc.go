// Package retry provides the wrapped-call combinator used for every external
// service request.
//
// Do runs an operation under a Policy: a bounded number of attempts,
// exponential backoff with jitter capped per wait, an overall cap on time spent
// waiting, and a classifier that decides which failures are worth retrying.
// Failures the classifier rejects are returned untouched; exhausting the budget
// returns an error marked services.ErrTransientService that wraps the last
// failure.
//
// Waits honour context cancellation. Tests inject Sleep and Rand to make the
// schedule deterministic and instant.
package retry
