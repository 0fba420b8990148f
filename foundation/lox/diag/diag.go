// File: diag.go
// Title: Front-End Diagnostics
// Description: The reporting channel used by the scanner and the parser.
//              A Reporter receives one Diagnostic per malformed lexeme or
//              construct; it never changes control flow in the caller.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package diag

import (
	"fmt"
	"strings"
	"sync"

	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwlog "github.com/msto63/lox/foundation/core/log"
)

// Phase identifies which pass produced a diagnostic
type Phase string

const (
	PhaseScan  Phase = "scan"
	PhaseParse Phase = "parse"
)

// Diagnostic is a single user-facing error with a 1-based line number.
// Where is empty for lexical errors, " at end" or " at 'lexeme'" for
// syntax errors.
type Diagnostic struct {
	Phase   Phase  `json:"phase" yaml:"phase"`
	Line    int    `json:"line" yaml:"line"`
	Where   string `json:"where,omitempty" yaml:"where,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// String renders "[line N] Error<where>: message"
func (d Diagnostic) String() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

// Reporter receives diagnostics
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(d Diagnostic)

// Report calls f(d)
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

type discard struct{}

func (discard) Report(Diagnostic) {}

// Discard drops every diagnostic
var Discard Reporter = discard{}

// OrDiscard returns r, or Discard when r is nil
func OrDiscard(r Reporter) Reporter {
	if r == nil {
		return Discard
	}
	return r
}

// Collector accumulates diagnostics in report order. Safe for concurrent use.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Report appends d
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of everything reported so far
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// Len returns the number of diagnostics
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diagnostics)
}

// HasErrors reports whether anything was reported
func (c *Collector) HasErrors() bool {
	return c.Len() > 0
}

// Reset clears the collector
func (c *Collector) Reset() {
	c.mu.Lock()
	c.diagnostics = nil
	c.mu.Unlock()
}

// LogReporter writes diagnostics to a logger at warn level
type LogReporter struct {
	logger *mdwlog.Logger
}

// NewLogReporter creates a reporter that logs through logger
func NewLogReporter(logger *mdwlog.Logger) *LogReporter {
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	return &LogReporter{logger: logger.WithField("component", "diagnostics")}
}

// Report logs d
func (r *LogReporter) Report(d Diagnostic) {
	r.logger.Warn(d.Message, mdwlog.Fields{
		"phase": string(d.Phase),
		"line":  d.Line,
		"where": strings.TrimSpace(d.Where),
	})
}

type multi []Reporter

func (m multi) Report(d Diagnostic) {
	for _, r := range m {
		r.Report(d)
	}
}

// Multi fans each diagnostic out to every non-nil reporter
func Multi(reporters ...Reporter) Reporter {
	var out multi
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// ToError folds diagnostics into a single coded error, or nil when ds is
// empty. The code is SYNTAX_ERROR if any parse diagnostic is present,
// LEX_ERROR otherwise.
func ToError(ds []Diagnostic) error {
	if len(ds) == 0 {
		return nil
	}

	code := mdwerror.CodeLexical
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
		if d.Phase == PhaseParse {
			code = mdwerror.CodeSyntax
		}
	}

	return mdwerror.New(strings.Join(lines, "\n")).
		WithCode(code).
		WithDetail("count", len(ds)).
		WithDetail("first_line", ds[0].Line)
}
