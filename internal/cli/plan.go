// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// plan.go - "turncapp plan" command: analyze one part and print the report.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/export"
)

// HandlePlan analyzes a feature-summary file, prints the operator report,
// and optionally exports the plan.
func HandlePlan(args Args) error {
	if args.File == "" {
		return fmt.Errorf("plan requires a feature-summary file: turncapp plan <summary.json>")
	}

	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	result, err := rt.analyzeFileForReport(ctx, args.File)
	if err != nil {
		return fmt.Errorf("%s", capp.UserFacingError(err))
	}

	if args.Recommend && result.Plan != nil {
		text, err := rt.Engine.Recommendations(ctx, result.Summary, result.Score, result.Plan)
		if err != nil {
			// The plan stands on its own; surface the advisory failure
			// without discarding it.
			fmt.Fprintf(os.Stderr, "%s %s\n",
				warningStyle.Render("[Advisory unavailable]"),
				capp.UserFacingError(err))
		} else {
			result.Advisory = text
		}
	}

	fmt.Print(export.Report(result))

	opts := &export.Options{
		OutputDir: exportDir(rt, args),
		Pretty:    rt.Config.Export.Pretty,
	}

	var document string
	if args.Save && result.Plan != nil {
		path, err := export.ExportJSON(result, opts)
		if err != nil {
			return err
		}
		if data, readErr := os.ReadFile(path); readErr == nil {
			document = string(data)
		}
		if !args.Quiet {
			fmt.Printf("\n%s %s\n", okStyle.Render("Saved:"), path)
		}
	}
	if args.Markdown && result.Plan != nil {
		path, err := export.ExportMarkdown(result, opts)
		if err != nil {
			return err
		}
		if !args.Quiet {
			fmt.Printf("%s %s\n", okStyle.Render("Saved:"), path)
		}
	}

	rt.recordRun(result, document)
	return nil
}

// exportDir picks the export directory: CLI flag, then config, then cwd.
func exportDir(rt *runtimeEnv, args Args) string {
	if args.OutputDir != "" {
		return args.OutputDir
	}
	if rt.Config.Export.Dir != "" {
		return rt.Config.Export.Dir
	}
	return "."
}
