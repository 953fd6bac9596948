// Package logging assembles the structured slog loggers used across
// foldersort.
//
// It owns the console and JSON handlers, resolves output paths (stdout,
// stderr, log files) and exposes context-aware helpers so workflow code can
// tag log lines with run IDs, phases and request IDs without threading them
// through every call. A no-op logger is provided for tests and for wiring code
// that must not fail.
package logging
