// Package log provides structured logging for the lox toolchain.
//
// Package: log
// Title: Structured Logging
// Description: Leveled, structured logging with contextual fields and
//              JSON, text, console and logfmt output. Loggers are
//              immutable: every With* call returns a copy.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-19 v0.2.0: Trimmed to the features the front end uses
//
// Usage:
//
//	import mdwlog "github.com/msto63/lox/foundation/core/log"
//
//	logger := mdwlog.New().
//		WithLevel(mdwlog.LevelInfo).
//		WithFormat(mdwlog.FormatText).
//		WithField("component", "scanner")
//
//	logger.Info("scan finished", mdwlog.Fields{"tokens": 12})
//
//	timer := logger.StartTimer("parse")
//	// ... parse
//	timer.Stop()
package log
