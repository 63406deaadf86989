// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watchcmd.go - "turncapp watch" command: drop-directory batch planning.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/export"
	"github.com/laveshps/turncapp/internal/watch"
)

// HandleWatch watches a drop directory for feature-summary files and plans
// each one as it settles. Runs until interrupted.
func HandleWatch(args Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	dir := args.WatchDir
	if dir == "" {
		dir = rt.Config.Watch.Dir
	}
	if dir == "" {
		return fmt.Errorf("watch needs a directory: turncapp watch <dir> (or set watch.dir in config)")
	}

	opts := &export.Options{
		OutputDir: exportDir(rt, args),
		Pretty:    rt.Config.Export.Pretty,
	}

	handler := func(path string) {
		if !args.Quiet {
			fmt.Printf("%s %s\n", commandStyle.Render("[watch]"), path)
		}
		if err := rt.planDropped(path, opts, args.Quiet); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %s\n",
				errorStyle.Render("[watch]"), path, err)
		}
	}

	watcher, err := watch.New(dir, rt.Config.Watch.Pattern,
		rt.Config.Watch.SettleDelay(), handler, rt.Log)
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Start(); err != nil {
		return err
	}

	if !args.Quiet {
		fmt.Printf("Watching %s for %s files. Press Ctrl+C to stop.\n",
			dir, rt.Config.Watch.Pattern)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if !args.Quiet {
		fmt.Println("\nStopping watch.")
	}
	return nil
}

// planDropped analyzes one dropped file and writes its JSON plan next to the
// configured export directory.
func (r *runtimeEnv) planDropped(path string, opts *export.Options, quiet bool) error {
	ctx := context.Background()

	result, err := r.analyzeFileForReport(ctx, path)
	if err != nil {
		return fmt.Errorf("%s", capp.UserFacingError(err))
	}

	var document string
	if result.Score.Suitable {
		out, err := export.ExportJSON(result, opts)
		if err != nil {
			return err
		}
		if data, readErr := os.ReadFile(out); readErr == nil {
			document = string(data)
		}
		if !quiet {
			fmt.Printf("  score %d/100, %.1f min -> %s\n",
				result.Score.Value, result.Plan.TotalMinutes, out)
		}
	} else if !quiet {
		fmt.Printf("  score %d/100, %s\n",
			result.Score.Value, errorStyle.Render("not suitable for turning"))
	}

	r.recordRun(result, document)
	r.Log.Info("watched file planned",
		zap.String("file", path),
		zap.Int("score", result.Score.Value),
		zap.Bool("suitable", result.Score.Suitable))
	return nil
}
