// Package whisperx turns an audio recording into a word-timed Transcript by
// running WhisperX through uvx.
//
// A Transcriber is a lazy handle: the first Transcribe call checks that uvx
// is on PATH and creates a private work directory, and Close removes it.
// WhisperX writes its JSON result into that directory and the result is read
// back with transcript.Load, so timestamps always come from the recognizer.
//
// Configuration (model, CUDA, VAD method, Hugging Face token, language) is
// passed via Config.
package whisperx
