package diag

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwlog "github.com/msto63/lox/foundation/core/log"
)

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		d        Diagnostic
		expected string
	}{
		{Diagnostic{Phase: PhaseScan, Line: 1, Message: "Unexpected character."}, "[line 1] Error: Unexpected character."},
		{Diagnostic{Phase: PhaseParse, Line: 2, Where: " at end", Message: "Expect expression."}, "[line 2] Error at end: Expect expression."},
		{Diagnostic{Phase: PhaseParse, Line: 3, Where: " at ';'", Message: "Expect expression."}, "[line 3] Error at ';': Expect expression."},
	}

	for _, tt := range tests {
		if got := tt.d.String(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(line int) {
			defer wg.Done()
			c.Report(Diagnostic{Line: line, Message: "x"})
		}(i + 1)
	}
	wg.Wait()

	if c.Len() != 50 {
		t.Errorf("Expected 50 diagnostics, got %d", c.Len())
	}
	if !c.HasErrors() {
		t.Error("Expected HasErrors")
	}

	snapshot := c.Diagnostics()
	c.Reset()
	if c.Len() != 0 || len(snapshot) != 50 {
		t.Errorf("Expected reset to leave snapshot intact, got %d/%d", c.Len(), len(snapshot))
	}
}

func TestMultiAndOrDiscard(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	r := Multi(a, nil, b)
	r.Report(Diagnostic{Line: 1, Message: "x"})

	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("Expected fan-out to both collectors, got %d and %d", a.Len(), b.Len())
	}

	if OrDiscard(nil) != Discard {
		t.Error("Expected Discard for nil reporter")
	}
	OrDiscard(nil).Report(Diagnostic{})
}

func TestLogReporter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelWarn, Format: mdwlog.FormatLogfmt, Output: buf})

	NewLogReporter(logger).Report(Diagnostic{Phase: PhaseScan, Line: 4, Message: "Unterminated string."})

	out := buf.String()
	for _, want := range []string{`level=warn`, `message="Unterminated string."`, `line=4`, `phase="scan"`, `component="diagnostics"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}

func TestToError(t *testing.T) {
	if ToError(nil) != nil {
		t.Error("Expected nil for no diagnostics")
	}

	lexOnly := ToError([]Diagnostic{{Phase: PhaseScan, Line: 1, Message: "Unexpected character."}})
	if !mdwerror.HasCode(lexOnly, mdwerror.CodeLexical) {
		t.Errorf("Expected LEX_ERROR, got %s", mdwerror.GetCode(lexOnly))
	}

	mixed := ToError([]Diagnostic{
		{Phase: PhaseScan, Line: 1, Message: "Unexpected character."},
		{Phase: PhaseParse, Line: 1, Where: " at end", Message: "Expect expression."},
	})
	if !mdwerror.HasCode(mixed, mdwerror.CodeSyntax) {
		t.Errorf("Expected SYNTAX_ERROR, got %s", mdwerror.GetCode(mixed))
	}
	if !strings.Contains(mixed.Error(), "\n[line 1] Error at end: Expect expression.") {
		t.Errorf("Unexpected message %q", mixed.Error())
	}
}
