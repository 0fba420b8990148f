// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     version
// Description: Central version management for the CLI and the services
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants for the toolchain components
const (
	// Platform version
	Platform = "0.1.0"

	// Component versions
	Scanner  = "0.1.0"
	Parser   = "0.1.0"
	Frontend = "0.1.0"
	REPL     = "0.1.0"

	// APIVersion is the wire API served over gRPC and HTTP
	APIVersion = "v1"
)

// Set at build time with -ldflags "-X github.com/msto63/lox/pkg/core/version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "scanner":
		return Scanner
	case "parser":
		return Parser
	case "frontend":
		return Frontend
	case "repl":
		return REPL
	default:
		return Platform
	}
}

// Info returns a one-line build description
func Info() string {
	return fmt.Sprintf("lox %s (api %s, commit %s, built %s, %s %s/%s)",
		Platform, APIVersion, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
