// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     repl
// Description: Styles for the REPL TUI
// Author:      msto63
// Created:     2025-12-07
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package repl

import (
	"github.com/charmbracelet/lipgloss"
)

// Color Palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
)

// Header styles
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	ModeStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)
)

// Transcript styles
var (
	InputLineStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	ResultStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			PaddingLeft(2)

	DiagnosticStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			PaddingLeft(2)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			PaddingLeft(2)

	TranscriptStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed)
)

// Status and help bar
var (
	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Logo shown in the header
const Logo = "lox"
