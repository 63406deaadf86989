// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Lip Gloss styles for turncapp CLI output.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/laveshps/turncapp/internal/ui/styles"
)

var (
	// Prompt style for the chat REPL
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// Info style for secondary output
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// Command style for slash-command listings
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// Success style for status checks
	okStyle = lipgloss.NewStyle().
		Foreground(styles.Emerald).
		Bold(true)
)
