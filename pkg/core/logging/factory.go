// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating loggers from configuration
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"

	mdwlog "github.com/msto63/lox/foundation/core/log"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service or command name, written as the logger name
	ServiceName string

	// Log level (trace, debug, info, warn, error, fatal)
	Level string

	// Output format (json, text, console, logfmt). Forced to json when a
	// Sink is set, since the sink decodes JSON lines.
	Format string

	// Primary output (default: os.Stderr)
	Output io.Writer

	// Sink receives batched entries in addition to Output (optional)
	Sink LogSink

	// Additional outputs
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "text",
	}
}

// NewLogger creates a foundation logger. The returned closer flushes and
// stops the sink writer; it is a no-op without a sink.
func NewLogger(cfg LoggerConfig) (*mdwlog.Logger, io.Closer) {
	level, err := mdwlog.ParseLevel(cfg.Level)
	if err != nil {
		level = mdwlog.LevelInfo
	}

	format, err := mdwlog.ParseFormat(cfg.Format)
	if err != nil {
		format = mdwlog.FormatText
	}

	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	var closer io.Closer = nopCloser{}
	if cfg.Sink != nil {
		sw := NewSinkWriter(SinkWriterConfig{
			Sink:        cfg.Sink,
			ServiceName: cfg.ServiceName,
			Fallback:    output,
		})
		output = sw
		closer = sw
		format = mdwlog.FormatJSON
	}

	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	logger := mdwlog.NewWithConfig(mdwlog.Config{
		Level:  level,
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})

	return logger, closer
}

// NewSimpleLogger creates a text logger at info level without a sink
func NewSimpleLogger(serviceName string) *mdwlog.Logger {
	logger, _ := NewLogger(DefaultLoggerConfig(serviceName))
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
