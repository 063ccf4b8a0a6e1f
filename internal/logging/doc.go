// Package logging builds the slog loggers used across the daemon and CLI.
//
// It provides console and JSON handlers, typed attribute helpers, component
// loggers, and context-derived fields so plan, phase, and run identifiers
// appear consistently in every log line the engine emits.
package logging
