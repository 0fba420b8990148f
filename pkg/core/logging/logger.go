// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     logging
// Description: Adapter that routes grpc-go's internal logging through the
//              foundation logger
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"fmt"
	"os"
	"strings"

	"google.golang.org/grpc/grpclog"

	mdwlog "github.com/msto63/lox/foundation/core/log"
)

// GRPCLogger implements grpclog.LoggerV2 on top of a foundation logger
type GRPCLogger struct {
	logger    *mdwlog.Logger
	verbosity int
}

var _ grpclog.LoggerV2 = (*GRPCLogger)(nil)

// NewGRPCLogger wraps logger. grpc-go info messages are logged at debug
// level since they are chatty; verbosity gates V(l).
func NewGRPCLogger(logger *mdwlog.Logger, verbosity int) *GRPCLogger {
	return &GRPCLogger{
		logger:    logger.WithField("component", "grpc-go"),
		verbosity: verbosity,
	}
}

// InstallGRPCLogger makes logger the process-wide grpc-go logger.
// Must be called before any gRPC activity.
func InstallGRPCLogger(logger *mdwlog.Logger, verbosity int) {
	grpclog.SetLoggerV2(NewGRPCLogger(logger, verbosity))
}

func (g *GRPCLogger) Info(args ...interface{})    { g.logger.Debug(fmt.Sprint(args...)) }
func (g *GRPCLogger) Infoln(args ...interface{})  { g.logger.Debug(sprintln(args...)) }
func (g *GRPCLogger) Infof(f string, args ...interface{}) {
	g.logger.Debug(fmt.Sprintf(f, args...))
}

func (g *GRPCLogger) Warning(args ...interface{})   { g.logger.Warn(fmt.Sprint(args...)) }
func (g *GRPCLogger) Warningln(args ...interface{}) { g.logger.Warn(sprintln(args...)) }
func (g *GRPCLogger) Warningf(f string, args ...interface{}) {
	g.logger.Warn(fmt.Sprintf(f, args...))
}

func (g *GRPCLogger) Error(args ...interface{})   { g.logger.Error(fmt.Sprint(args...)) }
func (g *GRPCLogger) Errorln(args ...interface{}) { g.logger.Error(sprintln(args...)) }
func (g *GRPCLogger) Errorf(f string, args ...interface{}) {
	g.logger.Error(fmt.Sprintf(f, args...))
}

func (g *GRPCLogger) Fatal(args ...interface{}) {
	g.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}

func (g *GRPCLogger) Fatalln(args ...interface{}) {
	g.logger.Error(sprintln(args...))
	os.Exit(1)
}

func (g *GRPCLogger) Fatalf(f string, args ...interface{}) {
	g.logger.Error(fmt.Sprintf(f, args...))
	os.Exit(1)
}

// V reports whether verbosity level l is enabled
func (g *GRPCLogger) V(l int) bool {
	return l <= g.verbosity
}

func sprintln(args ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}
