// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the turncapp TUI and CLI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Cyan - brand color, prompts, user input
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Purple - advisory (assistant) output
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Emerald - suitable parts, completed operations, success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - errors and rejected parts
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - warnings, in-progress analysis
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// TEXT AND SURFACE COLORS
// =============================================================================

// TextPrimary - main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - labels, table headers
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - hints, timestamps
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// Overlay - borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// Header is the title bar style.
	Header = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// UserLabel marks user chat lines.
	UserLabel = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// AssistantLabel marks advisory chat lines.
	AssistantLabel = lipgloss.NewStyle().Foreground(Purple).Bold(true)

	// StatusGood renders suitable scores and healthy endpoints.
	StatusGood = lipgloss.NewStyle().Foreground(Emerald)

	// StatusBad renders rejections and errors.
	StatusBad = lipgloss.NewStyle().Foreground(Rose)

	// StatusWarn renders in-flight and degraded states.
	StatusWarn = lipgloss.NewStyle().Foreground(Amber)

	// Hint renders key hints and fine print.
	Hint = lipgloss.NewStyle().Foreground(TextMuted)

	// Border wraps panes in the standard border color.
	Border = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)
)

// ScoreStyle picks a color for a machinability score.
func ScoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 70:
		return StatusGood
	case score >= 40:
		return StatusWarn
	default:
		return StatusBad
	}
}
