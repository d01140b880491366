// Package logging provides structured logging utilities for taskdeck.
//
// It centralizes attribute naming on top of the standard library's slog
// package so log lines stay consistent and greppable across the codebase.
// User emails are never logged directly; UserHash hashes them so entries
// can be correlated without exposing PII.
package logging
