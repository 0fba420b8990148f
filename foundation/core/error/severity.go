// File: severity.go
// Title: Error Severity Levels
// Description: Severity classification for front-end errors. Source defects are
//              low severity (the tool works, the input is wrong); storage and
//              internal failures rank higher.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-19 v0.2.0: Mapping updated for front-end codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow covers problems in user input: bad characters, missing ')'
	SeverityLow Severity = iota

	// SeverityMedium covers recoverable tool problems such as a bad config value
	SeverityMedium

	// SeverityHigh covers failures that stop a component, e.g. the history store
	SeverityHigh

	// SeverityCritical is reserved for internal invariants being broken
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeInternal:
		return SeverityCritical
	case CodeStorageError:
		return SeverityHigh
	case CodeConfigError, CodeUnknown:
		return SeverityMedium
	case CodeLexical, CodeSyntax, CodeInvalidInput, CodeNotFound:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
