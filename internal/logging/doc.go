// Package logging assembles structured slog loggers and formatting helpers used
// across atelier.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers and the
// transition executor automatically tag log lines with item IDs, actors,
// actions, and correlation IDs. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
