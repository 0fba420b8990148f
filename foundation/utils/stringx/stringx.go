// File: stringx.go
// Title: String Utility Functions
// Description: Small Unicode-aware string helpers used by the CLI, the
//              REPL and the service layer for display and defaults.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core utilities
// - 2026-10-19 v0.2.0: Reduced to display helpers

// Package stringx holds string helpers missing from the standard library.
package stringx

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsBlank returns true if the string is empty or contains only whitespace.
func IsBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Truncate shortens s to maxLen runes, ending it with ellipsis when cut.
// If the ellipsis does not fit, the string is cut without it.
func Truncate(s string, maxLen int, ellipsis string) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	ellipsisLen := utf8.RuneCountInString(ellipsis)
	if ellipsisLen >= maxLen {
		return string([]rune(s)[:maxLen])
	}
	return string([]rune(s)[:maxLen-ellipsisLen]) + ellipsis
}

// PadRight pads s to width runes with pad.
// Strings already at least width long are returned unchanged.
func PadRight(s string, width int, pad rune) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(string(pad), width-n)
}

// SplitLines splits on \n, \r\n and \r.
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// FirstNonBlank returns the first argument that is not blank, or "".
func FirstNonBlank(values ...string) string {
	for _, s := range values {
		if !IsBlank(s) {
			return s
		}
	}
	return ""
}
