// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen analysis view launcher.
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/export"
	"github.com/laveshps/turncapp/internal/ui/chat"
)

// HandleTUI analyzes a feature-summary file and opens the interactive
// advisory view. Falls back to the plain report on non-TTY output.
func HandleTUI(args Args) error {
	if args.File == "" {
		PrintUsage()
		return nil
	}

	if !IsStdoutTTY() {
		// Piped output gets the report, same as "turncapp plan".
		return HandlePlan(args)
	}

	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.analyzeFileForReport(context.Background(), args.File)
	if err != nil {
		return fmt.Errorf("%s", capp.UserFacingError(err))
	}
	rt.recordRun(result, "")

	if result.Plan == nil {
		// Nothing to review interactively; print the rejection report.
		fmt.Print(export.Report(result))
		return nil
	}

	model := chat.New(rt.Engine, result, rt.Store, rt.Config, rt.Log)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("display error: %w", err)
	}
	return nil
}
