// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes used across the Lox front end so that
//              lexical, syntax, configuration and storage failures can be told
//              apart by callers, the CLI exit logic and the gRPC boundary.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-19 v0.2.0: Reduced to front-end codes (lexical, syntax, storage)

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Source analysis
	CodeLexical Code = "LEX_ERROR"
	CodeSyntax  Code = "SYNTAX_ERROR"

	// Configuration and environment
	CodeConfigError Code = "CONFIG_ERROR"

	// Persistence
	CodeStorageError Code = "STORAGE_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput,
		CodeLexical, CodeSyntax, CodeConfigError, CodeStorageError:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeLexical, CodeSyntax:
		return "source"
	case CodeConfigError:
		return "configuration"
	case CodeStorageError:
		return "storage"
	case CodeInvalidInput:
		return "validation"
	default:
		return "generic"
	}
}

// IsSourceError reports whether the code describes a defect in user source text
// rather than a failure of the tool itself.
func (c Code) IsSourceError() bool {
	return c == CodeLexical || c == CodeSyntax
}
