// File: lox.go
// Title: Lox Front-End Engine
// Description: High-level interface that runs the scanner and the parser
//              over one source text, collects diagnostics and measures
//              each run. The engine holds no per-run state and is safe for
//              concurrent use.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial engine implementation

package lox

import (
	"errors"
	"os"
	"time"

	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwlog "github.com/msto63/lox/foundation/core/log"
	mdwast "github.com/msto63/lox/foundation/lox/ast"
	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	mdwparser "github.com/msto63/lox/foundation/lox/parser"
	mdwscanner "github.com/msto63/lox/foundation/lox/scanner"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
)

// DefaultMaxSourceBytes is the input limit used when Options leaves it unset
const DefaultMaxSourceBytes = 1 << 20

// Options configures the engine
type Options struct {
	Logger         *mdwlog.Logger
	MaxSourceBytes int
	MaxDepth       int
}

// Engine runs the front-end pipeline: source → tokens → expression tree
type Engine struct {
	logger  *mdwlog.Logger
	options Options
}

// ScanResult is the outcome of scanning one source text
type ScanResult struct {
	Tokens      []mdwtoken.Token
	Diagnostics []mdwdiag.Diagnostic
	Duration    time.Duration
}

// OK reports whether the scan produced no diagnostics
func (r *ScanResult) OK() bool {
	return len(r.Diagnostics) == 0
}

// Err folds the diagnostics into a coded error, or nil
func (r *ScanResult) Err() error {
	return mdwdiag.ToError(r.Diagnostics)
}

// ParseResult is the outcome of scanning and parsing one source text.
// Expr is nil when parsing failed.
type ParseResult struct {
	Tokens      []mdwtoken.Token
	Expr        mdwast.Expr
	Diagnostics []mdwdiag.Diagnostic
	Duration    time.Duration
}

// OK reports whether a tree was built without any diagnostics
func (r *ParseResult) OK() bool {
	return r.Expr != nil && len(r.Diagnostics) == 0
}

// Err folds the diagnostics into a coded error, or nil
func (r *ParseResult) Err() error {
	return mdwdiag.ToError(r.Diagnostics)
}

// New creates an engine
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.MaxSourceBytes <= 0 {
		opts.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = mdwparser.DefaultMaxDepth
	}

	return &Engine{
		logger:  opts.Logger.WithField("component", "lox-engine"),
		options: opts,
	}
}

// Options returns the effective options
func (e *Engine) Options() Options {
	return e.options
}

// Scan tokenizes source. Lexical problems are returned as diagnostics;
// the error is only set for input the engine refuses to process.
func (e *Engine) Scan(source string) (*ScanResult, error) {
	if err := e.checkSize(source); err != nil {
		return nil, err
	}

	timer := e.logger.StartTimer("scan").WithField("bytes", len(source))
	collector := mdwdiag.NewCollector()

	tokens := mdwscanner.New(source, e.reporter(collector)).WithLogger(e.traceLogger()).ScanTokens()

	result := &ScanResult{
		Tokens:      tokens,
		Diagnostics: collector.Diagnostics(),
	}
	timer.WithField("tokens", len(tokens)).WithField("diagnostics", len(result.Diagnostics))
	result.Duration = timer.Stop()

	return result, nil
}

// Parse scans and parses source as a single expression. The parser runs
// even after lexical errors so one pass reports as much as possible; the
// result is only OK when neither pass reported anything.
func (e *Engine) Parse(source string) (*ParseResult, error) {
	if err := e.checkSize(source); err != nil {
		return nil, err
	}

	timer := e.logger.StartTimer("parse").WithField("bytes", len(source))
	collector := mdwdiag.NewCollector()
	reporter := e.reporter(collector)

	tokens := mdwscanner.New(source, reporter).WithLogger(e.traceLogger()).ScanTokens()
	result := &ParseResult{Tokens: tokens}

	p := mdwparser.New(tokens, mdwparser.Options{
		Logger:   e.logger,
		Reporter: reporter,
		MaxDepth: e.options.MaxDepth,
	})

	expr, err := p.Parse()
	var pe *mdwparser.ParseError
	if err != nil && !errors.As(err, &pe) {
		return nil, mdwerror.Wrap(err, "parse").WithCode(mdwerror.CodeInternal)
	}
	result.Expr = expr

	result.Diagnostics = collector.Diagnostics()
	timer.WithField("tokens", len(tokens)).WithField("ok", result.OK())
	result.Duration = timer.Stop()

	return result, nil
}

// ParseFile reads path and parses its contents
func (e *Engine) ParseFile(path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := mdwerror.CodeInternal
		if errors.Is(err, os.ErrNotExist) {
			code = mdwerror.CodeNotFound
		}
		return nil, mdwerror.Wrap(err, "failed to read source file").
			WithCode(code).
			WithOperation("lox.ParseFile").
			WithDetail("path", path)
	}
	return e.Parse(string(data))
}

func (e *Engine) checkSize(source string) error {
	if len(source) <= e.options.MaxSourceBytes {
		return nil
	}
	return mdwerror.Newf("source exceeds maximum size: %d > %d bytes", len(source), e.options.MaxSourceBytes).
		WithCode(mdwerror.CodeInvalidInput).
		WithDetail("size", len(source)).
		WithDetail("limit", e.options.MaxSourceBytes)
}

func (e *Engine) reporter(collector *mdwdiag.Collector) mdwdiag.Reporter {
	if e.logger.IsLevelEnabled(mdwlog.LevelDebug) {
		return mdwdiag.Multi(collector, mdwdiag.NewLogReporter(e.logger))
	}
	return collector
}

func (e *Engine) traceLogger() *mdwlog.Logger {
	if e.logger.IsLevelEnabled(mdwlog.LevelTrace) {
		return e.logger
	}
	return nil
}
