package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mdwlog "github.com/msto63/lox/foundation/core/log"
)

type memorySink struct {
	mu      sync.Mutex
	records []LogRecord
	fail    bool
}

func (s *memorySink) AppendLogs(_ context.Context, records []LogRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("sink down")
	}
	s.records = append(s.records, records...)
	return len(records), nil
}

func (s *memorySink) snapshot() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogRecord(nil), s.records...)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       LoggerConfig
		logFn     func(*mdwlog.Logger)
		contains  string
		wantEmpty bool
	}{
		{
			name:     "text at info",
			cfg:      LoggerConfig{ServiceName: "lox", Level: "info", Format: "text"},
			logFn:    func(l *mdwlog.Logger) { l.Info("hello") },
			contains: "[INF] {lox} hello",
		},
		{
			name:      "debug filtered at info",
			cfg:       LoggerConfig{Level: "info", Format: "json"},
			logFn:     func(l *mdwlog.Logger) { l.Debug("hidden") },
			wantEmpty: true,
		},
		{
			name:     "bad level falls back to info",
			cfg:      LoggerConfig{Level: "loud", Format: "logfmt"},
			logFn:    func(l *mdwlog.Logger) { l.Info("shown") },
			contains: `message="shown"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.cfg.Output = buf
			logger, closer := NewLogger(tt.cfg)
			defer closer.Close()

			tt.logFn(logger)

			if tt.wantEmpty {
				if buf.Len() != 0 {
					t.Errorf("Expected no output, got %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("Expected %q in %q", tt.contains, buf.String())
			}
		})
	}
}

func TestNewLoggerWithSink(t *testing.T) {
	sink := &memorySink{}
	buf := &bytes.Buffer{}

	logger, closer := NewLogger(LoggerConfig{
		ServiceName: "lox-serve",
		Level:       "debug",
		Format:      "text",
		Output:      buf,
		Sink:        sink,
	})

	logger.Warn("Unterminated string.", mdwlog.Fields{"line": 2})
	logger.ErrorWithErr("store failed", errors.New("disk full"))

	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records := sink.snapshot()
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Level != "warn" || records[0].Message != "Unterminated string." || records[0].Logger != "lox-serve" {
		t.Errorf("Unexpected record %+v", records[0])
	}
	if records[0].Fields["line"] != float64(2) {
		t.Errorf("Expected field line=2, got %v", records[0].Fields["line"])
	}
	if records[1].Error != "disk full" {
		t.Errorf("Expected error field, got %+v", records[1])
	}
	if !strings.Contains(buf.String(), `"message":"Unterminated string."`) {
		t.Errorf("Expected JSON on the fallback writer, got %q", buf.String())
	}
}

func TestSinkWriterBatchAndDrop(t *testing.T) {
	sink := &memorySink{}
	w := NewSinkWriter(SinkWriterConfig{Sink: sink, BatchSize: 2, FlushPeriod: time.Hour, Fallback: &bytes.Buffer{}})
	defer w.Close()

	w.Write([]byte(`{"level":"info","message":"a"}` + "\n"))
	w.Write([]byte("not json\n"))
	w.Write([]byte(`{"level":"info","message":"b"}` + "\n"))

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := len(sink.snapshot()); got != 2 {
		t.Fatalf("Expected full batch to flush, got %d records", got)
	}

	sink.mu.Lock()
	sink.fail = true
	sink.mu.Unlock()

	w.Write([]byte(`{"level":"info","message":"c"}` + "\n"))
	w.Flush()
	if w.Dropped() != 1 {
		t.Errorf("Expected 1 dropped record, got %d", w.Dropped())
	}
}

func TestGRPCLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	base := mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelInfo, Format: mdwlog.FormatLogfmt, Output: buf})
	g := NewGRPCLogger(base, 1)

	g.Info("chatty")
	g.Warningf("retry %d", 3)
	g.Errorln("broken", "pipe")

	out := buf.String()
	if strings.Contains(out, "chatty") {
		t.Error("Expected grpc info to be logged at debug and filtered")
	}
	if !strings.Contains(out, `message="retry 3"`) {
		t.Errorf("Expected warning in %q", out)
	}
	if !strings.Contains(out, `message="broken pipe"`) {
		t.Errorf("Expected error in %q", out)
	}
	if !g.V(1) || g.V(2) {
		t.Error("Unexpected verbosity gating")
	}
}
