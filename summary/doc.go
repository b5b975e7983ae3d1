// Package summary generates short markdown synopses of source files.
//
// A Generator asks the model once per distinct file content and keeps
// accepted answers in a storage.SummaryRepository keyed by content hash, so
// an unchanged file is never summarized twice, even across restarts. Answers
// shorter than MinSummaryLength or longer than MaxSummaryLength are
// rejected in favor of Fallback, which lists classes, functions and
// dependencies taken from the file's structural chunks.
package summary
