// File: doc.go
// Title: Core Error Package Documentation
// Description: Structured errors carrying a code, a severity and key/value
//              details for the Lox front end.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial documentation
// - 2026-10-19 v0.2.0: Front-end scope

/*
Package error provides the structured error type used by the Lox front end.

An Error carries a Code (LEX_ERROR, SYNTAX_ERROR, CONFIG_ERROR, ...), a Severity
derived from the code, the operation that failed and arbitrary details. It wraps
an optional cause and supports errors.Is / errors.As through Unwrap.

	err := mdwerror.New("source exceeds limit").
		WithCode(mdwerror.CodeInvalidInput).
		WithOperation("lox.Parse").
		WithDetail("bytes", n)
*/
package error
