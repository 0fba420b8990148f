// File: logger_test.go
// Title: Logger Tests
// Description: Unit tests for level filtering, context fields, error
//              logging and timers.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial test suite
// - 2026-10-19 v0.2.0: Rewritten for the trimmed logger

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	mdwerror "github.com/msto63/lox/foundation/core/error"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewWithConfig(Config{Level: level, Format: format, Output: buf}), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		min      Level
		logFn    func(*Logger)
		expected bool
	}{
		{"debug below info", LevelInfo, func(l *Logger) { l.Debug("x") }, false},
		{"info at info", LevelInfo, func(l *Logger) { l.Info("x") }, true},
		{"warn above info", LevelInfo, func(l *Logger) { l.Warn("x") }, true},
		{"trace at trace", LevelTrace, func(l *Logger) { l.Trace("x") }, true},
		{"error below fatal", LevelFatal, func(l *Logger) { l.Error("x") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(tt.min, FormatJSON)
			tt.logFn(logger)
			if got := buf.Len() > 0; got != tt.expected {
				t.Errorf("Expected output=%v, got %v (%q)", tt.expected, got, buf.String())
			}
		})
	}
}

func TestContextFieldsAreCopied(t *testing.T) {
	base, buf := newBufferLogger(LevelInfo, FormatJSON)
	scoped := base.WithField("component", "scanner").WithName("lox")

	scoped.Info("scanned", Fields{"tokens": 3})
	base.Info("plain")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	if lines[0]["component"] != "scanner" {
		t.Errorf("Expected component=scanner, got %v", lines[0]["component"])
	}
	if lines[0]["logger"] != "lox" {
		t.Errorf("Expected logger=lox, got %v", lines[0]["logger"])
	}
	if lines[0]["tokens"] != float64(3) {
		t.Errorf("Expected tokens=3, got %v", lines[0]["tokens"])
	}
	if _, ok := lines[1]["component"]; ok {
		t.Error("Expected base logger to be unaffected by WithField")
	}
}

func TestLogErrorUsesSeverity(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"syntax error is low", mdwerror.New("Expect expression.").WithCode(mdwerror.CodeSyntax), "info"},
		{"config error is medium", mdwerror.New("bad port").WithCode(mdwerror.CodeConfigError), "warn"},
		{"storage error is high", mdwerror.New("disk full").WithCode(mdwerror.CodeStorageError), "error"},
		{"plain error", errors.New("plain"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(LevelTrace, FormatJSON)
			logger.LogError(tt.err)

			lines := decodeLines(t, buf)
			if len(lines) != 1 {
				t.Fatalf("Expected 1 line, got %d", len(lines))
			}
			if lines[0]["level"] != tt.level {
				t.Errorf("Expected level %s, got %v", tt.level, lines[0]["level"])
			}
		})
	}
}

func TestLogErrorNil(t *testing.T) {
	logger, buf := newBufferLogger(LevelTrace, FormatJSON)
	logger.LogError(nil)
	if buf.Len() != 0 {
		t.Errorf("Expected no output for nil error, got %q", buf.String())
	}
}

func TestTimerStopOnce(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)
	timer := logger.StartTimer("parse").WithField("tokens", 5)

	if !timer.IsRunning() {
		t.Fatal("Expected timer to be running")
	}
	timer.Stop()
	if second := timer.Stop(); second != 0 {
		t.Errorf("Expected second Stop to return 0, got %v", second)
	}

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0]["message"] != "parse completed" {
		t.Errorf("Expected 'parse completed', got %v", lines[0]["message"])
	}
	if lines[0]["operation"] != "parse" {
		t.Errorf("Expected operation=parse, got %v", lines[0]["operation"])
	}
}

func TestTimerStopWithError(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)
	logger.StartTimer("scan").StopWithError(errors.New("boom"))

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0]["level"] != "error" || lines[0]["error"] != "boom" {
		t.Errorf("Unexpected entry: %v", lines[0])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	logger.Error("dropped")
	if logger.IsLevelEnabled(LevelError) {
		t.Error("Expected error level to be disabled on nop logger")
	}
}
