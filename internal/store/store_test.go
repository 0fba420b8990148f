package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	"github.com/msto63/lox/pkg/core/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "nested", "history.db")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open(Config{})
	if !mdwerror.HasCode(err, mdwerror.CodeConfigError) {
		t.Errorf("Expected CONFIG_ERROR, got %v", err)
	}
}

func TestNewRun(t *testing.T) {
	run := NewRun(RunKindParse, "cli", "1 + 2")
	if run.ID == "" {
		t.Error("Expected generated ID")
	}
	if run.SourceBytes != 5 {
		t.Errorf("Expected 5 source bytes, got %d", run.SourceBytes)
	}
	if run.SourceHash != HashSource("1 + 2") || len(run.SourceHash) != 64 {
		t.Errorf("Unexpected source hash %q", run.SourceHash)
	}

	long := NewRun(RunKindScan, "cli", string(make([]byte, 500)))
	if len([]rune(long.Preview)) != previewLength {
		t.Errorf("Expected preview of %d runes, got %d", previewLength, len([]rune(long.Preview)))
	}
}

func TestRecordAndListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok := NewRun(RunKindParse, "cli", "1 + 2")
	ok.OK = true
	ok.TokenCount = 4
	ok.Duration = 3 * time.Millisecond

	failed := NewRun(RunKindParse, "grpc", "(1")
	failed.Timestamp = ok.Timestamp.Add(time.Second)
	failed.TokenCount = 3
	failed.RequestID = "req-1"
	failed.Diagnostics = []mdwdiag.Diagnostic{
		{Phase: mdwdiag.PhaseParse, Line: 1, Where: " at end", Message: "Expect ')' after expression."},
	}

	scan := NewRun(RunKindScan, "cli", "@")
	scan.Timestamp = ok.Timestamp.Add(2 * time.Second)
	scan.Diagnostics = []mdwdiag.Diagnostic{
		{Phase: mdwdiag.PhaseScan, Line: 1, Message: "Unexpected character."},
	}

	for _, r := range []*Run{ok, failed, scan} {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter RunFilter
		ids    []string
	}{
		{"all newest first", RunFilter{}, []string{scan.ID, failed.ID, ok.ID}},
		{"limit", RunFilter{Limit: 1}, []string{scan.ID}},
		{"kind", RunFilter{Kind: RunKindParse}, []string{failed.ID, ok.ID}},
		{"origin", RunFilter{Origin: "grpc"}, []string{failed.ID}},
		{"failed only", RunFilter{FailedOnly: true}, []string{scan.ID, failed.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.ListRuns(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListRuns failed: %v", err)
			}
			if len(runs) != len(tt.ids) {
				t.Fatalf("Expected %d runs, got %d", len(tt.ids), len(runs))
			}
			for i, id := range tt.ids {
				if runs[i].ID != id {
					t.Errorf("Run %d: expected %s, got %s", i, id, runs[i].ID)
				}
			}
		})
	}

	got, err := s.GetRun(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.OK || got.RequestID != "req-1" || got.TokenCount != 3 || got.Kind != RunKindParse {
		t.Errorf("Unexpected run: %+v", got)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0] != failed.Diagnostics[0] {
		t.Errorf("Expected diagnostics %v, got %v", failed.Diagnostics, got.Diagnostics)
	}

	gotOK, err := s.GetRun(ctx, ok.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if !gotOK.OK || gotOK.Duration != 3*time.Millisecond {
		t.Errorf("Expected ok run with 3ms, got ok=%v duration=%v", gotOK.OK, gotOK.Duration)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	if !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
		t.Errorf("Expected NOT_FOUND, got %v", err)
	}
}

func TestAppendAndListLogs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var _ logging.LogSink = s

	now := time.Now()
	n, err := s.AppendLogs(ctx, []logging.LogRecord{
		{Timestamp: now.Add(-time.Second), Level: "info", Logger: "lox", Message: "started"},
		{Timestamp: now, Level: "warn", Logger: "lox", Message: "diagnostic", Fields: map[string]interface{}{"line": float64(3)}},
	})
	if err != nil {
		t.Fatalf("AppendLogs failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 accepted, got %d", n)
	}

	all, err := s.ListLogs(ctx, LogFilter{})
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(all) != 2 || all[0].Message != "diagnostic" {
		t.Fatalf("Expected newest first, got %+v", all)
	}
	if all[0].Fields["line"] != float64(3) {
		t.Errorf("Expected field line=3, got %v", all[0].Fields)
	}

	warn, err := s.ListLogs(ctx, LogFilter{Level: "warn"})
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(warn) != 1 {
		t.Errorf("Expected 1 warn entry, got %d", len(warn))
	}
}

func TestStatsAndPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := NewRun(RunKindScan, "cli", "@")
	old.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
	old.Diagnostics = []mdwdiag.Diagnostic{{Phase: mdwdiag.PhaseScan, Line: 1, Message: "Unexpected character."}}
	fresh := NewRun(RunKindScan, "cli", "1")
	fresh.OK = true

	for _, r := range []*Run{old, fresh} {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}
	if _, err := s.AppendLogs(ctx, []logging.LogRecord{{Timestamp: time.Now().Add(-72 * time.Hour), Level: "info", Message: "old"}}); err != nil {
		t.Fatalf("AppendLogs failed: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := Stats{Runs: 2, FailedRuns: 1, Diagnostics: 1, Logs: 1}
	if st != want {
		t.Errorf("Expected %+v, got %+v", want, st)
	}

	deleted, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted rows, got %d", deleted)
	}

	st, _ = s.Stats(ctx)
	want = Stats{Runs: 1}
	if st != want {
		t.Errorf("Expected %+v after prune, got %+v", want, st)
	}

	if err := s.Vacuum(ctx); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}
