// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     logging
// Description: SinkWriter batches JSON log lines into a LogSink
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// LogRecord is one decoded log line
type LogRecord struct {
	Timestamp time.Time
	Level     string
	Message   string
	Logger    string
	Error     string
	Fields    map[string]interface{}
}

// LogSink persists batches of log records
type LogSink interface {
	AppendLogs(ctx context.Context, records []LogRecord) (int, error)
}

// SinkWriterConfig holds configuration for SinkWriter
type SinkWriterConfig struct {
	Sink        LogSink
	ServiceName string        // Overrides the logger name on every record when set
	BatchSize   int           // Number of records to batch (default: 100)
	FlushPeriod time.Duration // How often to flush (default: 2s)
	Fallback    io.Writer     // Always written first (default: os.Stderr)
}

// SinkWriter implements io.Writer. Every line goes to the fallback
// writer; lines that decode as JSON are also batched into the sink.
type SinkWriter struct {
	sink        LogSink
	serviceName string
	batchSize   int
	flushPeriod time.Duration
	fallback    io.Writer

	buffer   []LogRecord
	bufferMu sync.Mutex
	flushCh  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	dropped int
}

// NewSinkWriter creates a SinkWriter and starts its flush worker
func NewSinkWriter(cfg SinkWriterConfig) *SinkWriter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushPeriod <= 0 {
		cfg.FlushPeriod = 2 * time.Second
	}
	if cfg.Fallback == nil {
		cfg.Fallback = os.Stderr
	}

	w := &SinkWriter{
		sink:        cfg.Sink,
		serviceName: cfg.ServiceName,
		batchSize:   cfg.BatchSize,
		flushPeriod: cfg.FlushPeriod,
		fallback:    cfg.Fallback,
		buffer:      make([]LogRecord, 0, cfg.BatchSize),
		flushCh:     make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	go w.flushWorker()

	return w
}

// Write implements io.Writer
func (w *SinkWriter) Write(p []byte) (int, error) {
	n, err := w.fallback.Write(p)
	if err != nil {
		return n, err
	}

	record, ok := decodeRecord(p)
	if !ok {
		return n, nil
	}
	if w.serviceName != "" {
		record.Logger = w.serviceName
	}

	w.bufferMu.Lock()
	w.buffer = append(w.buffer, record)
	shouldFlush := len(w.buffer) >= w.batchSize
	w.bufferMu.Unlock()

	if shouldFlush {
		select {
		case w.flushCh <- struct{}{}:
		default:
		}
	}

	return n, nil
}

func decodeRecord(p []byte) (LogRecord, bool) {
	var raw map[string]interface{}
	if err := json.Unmarshal(p, &raw); err != nil {
		return LogRecord{}, false
	}

	record := LogRecord{Fields: make(map[string]interface{})}
	for k, v := range raw {
		s, _ := v.(string)
		switch k {
		case "timestamp":
			record.Timestamp, _ = time.Parse(time.RFC3339, s)
		case "level":
			record.Level = s
		case "message":
			record.Message = s
		case "logger":
			record.Logger = s
		case "error":
			record.Error = s
		default:
			record.Fields[k] = v
		}
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	return record, true
}

func (w *SinkWriter) flushWorker() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.flushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			w.flush()
			return
		case <-w.flushCh:
			w.flush()
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *SinkWriter) flush() {
	w.bufferMu.Lock()
	if len(w.buffer) == 0 {
		w.bufferMu.Unlock()
		return
	}
	records := make([]LogRecord, len(w.buffer))
	copy(records, w.buffer)
	w.buffer = w.buffer[:0]
	w.bufferMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accepted, err := w.sink.AppendLogs(ctx, records)
	if err != nil || accepted < len(records) {
		// Records already reached the fallback writer.
		w.bufferMu.Lock()
		w.dropped += len(records) - accepted
		w.bufferMu.Unlock()
	}
}

// Flush synchronously writes buffered records to the sink
func (w *SinkWriter) Flush() {
	w.flush()
}

// Dropped returns how many records the sink rejected
func (w *SinkWriter) Dropped() int {
	w.bufferMu.Lock()
	defer w.bufferMu.Unlock()
	return w.dropped
}

// Close flushes remaining records and stops the worker
func (w *SinkWriter) Close() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
	return nil
}
