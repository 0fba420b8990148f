// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     service
// Description: Transport-neutral front-end service. Runs scan and parse
//              requests through the engine, encodes results into plain
//              maps and records each run.
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package service

import (
	"context"
	"time"

	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwlog "github.com/msto63/lox/foundation/core/log"
	"github.com/msto63/lox/foundation/lox"
	mdwast "github.com/msto63/lox/foundation/lox/ast"
	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	mdwparser "github.com/msto63/lox/foundation/lox/parser"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
	"github.com/msto63/lox/internal/store"
)

// Recorder persists runs; *store.Store implements it
type Recorder interface {
	RecordRun(ctx context.Context, run *store.Run) error
}

// Config holds configuration for the service
type Config struct {
	MaxSourceBytes int
	MaxDepth       int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MaxSourceBytes: lox.DefaultMaxSourceBytes,
		MaxDepth:       mdwparser.DefaultMaxDepth,
	}
}

// Service is the front-end service shared by the gRPC, HTTP and
// WebSocket transports
type Service struct {
	engine   *lox.Engine
	recorder Recorder
	logger   *mdwlog.Logger
}

// Request is one scan or parse request
type Request struct {
	Source    string
	Origin    string // cli, grpc, http, ws, repl
	RequestID string
}

// ScanResponse is the result of a scan request
type ScanResponse struct {
	RunID       string
	Tokens      []mdwtoken.Token
	Diagnostics []mdwdiag.Diagnostic
	Duration    time.Duration
}

// OK reports whether the scan produced no diagnostics
func (r *ScanResponse) OK() bool {
	return len(r.Diagnostics) == 0
}

// ParseResponse is the result of a parse request
type ParseResponse struct {
	RunID       string
	TokenCount  int
	Expr        mdwast.Expr
	Diagnostics []mdwdiag.Diagnostic
	Duration    time.Duration
}

// OK reports whether a tree was built without diagnostics
func (r *ParseResponse) OK() bool {
	return r.Expr != nil && len(r.Diagnostics) == 0
}

// NewService creates the service. recorder may be nil.
func NewService(cfg Config, logger *mdwlog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = mdwlog.GetDefault()
	}

	return &Service{
		engine: lox.New(lox.Options{
			Logger:         logger,
			MaxSourceBytes: cfg.MaxSourceBytes,
			MaxDepth:       cfg.MaxDepth,
		}),
		recorder: recorder,
		logger:   logger.WithField("component", "frontend-service"),
	}
}

// Engine returns the underlying engine
func (s *Service) Engine() *lox.Engine {
	return s.engine
}

// Scan tokenizes the request source
func (s *Service) Scan(ctx context.Context, req Request) (*ScanResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.engine.Scan(req.Source)
	if err != nil {
		return nil, mdwerror.Wrap(err, "scan rejected").WithOperation("service.Scan")
	}

	resp := &ScanResponse{
		Tokens:      result.Tokens,
		Diagnostics: result.Diagnostics,
		Duration:    result.Duration,
	}

	run := store.NewRun(store.RunKindScan, req.Origin, req.Source)
	run.RequestID = req.RequestID
	run.TokenCount = len(result.Tokens)
	run.OK = result.OK()
	run.Duration = result.Duration
	run.Diagnostics = result.Diagnostics
	resp.RunID = s.record(ctx, run)

	return resp, nil
}

// Parse scans and parses the request source as one expression
func (s *Service) Parse(ctx context.Context, req Request) (*ParseResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.engine.Parse(req.Source)
	if err != nil {
		return nil, mdwerror.Wrap(err, "parse rejected").WithOperation("service.Parse")
	}

	resp := &ParseResponse{
		TokenCount:  len(result.Tokens),
		Expr:        result.Expr,
		Diagnostics: result.Diagnostics,
		Duration:    result.Duration,
	}

	run := store.NewRun(store.RunKindParse, req.Origin, req.Source)
	run.RequestID = req.RequestID
	run.TokenCount = len(result.Tokens)
	run.OK = result.OK()
	run.Duration = result.Duration
	run.Diagnostics = result.Diagnostics
	resp.RunID = s.record(ctx, run)

	return resp, nil
}

// record stores the run and returns its ID, or "" when recording is off
// or failed. A failed write never fails the request.
func (s *Service) record(ctx context.Context, run *store.Run) string {
	if s.recorder == nil {
		return ""
	}
	if err := s.recorder.RecordRun(ctx, run); err != nil {
		s.logger.WarnWithErr("failed to record run", err, mdwlog.Fields{"kind": string(run.Kind)})
		return ""
	}
	return run.ID
}
