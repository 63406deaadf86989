// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - "turncapp status" and "turncapp models" commands.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/laveshps/turncapp/internal/config"
)

// HandleStatus reports the advisory endpoint health and active profiles.
func HandleStatus(args Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config

	fmt.Println(welcomeStyle.Render("turncapp status"))
	fmt.Println()

	fmt.Printf("Advisory endpoint: %s\n", cfg.Advisory.Endpoint)
	fmt.Printf("Advisory model:    %s\n", cfg.Advisory.Model)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if rt.Client.HealthCheck(ctx) {
		fmt.Printf("Service:           %s", okStyle.Render("reachable"))
		if version, err := rt.Client.Version(ctx); err == nil {
			fmt.Printf(" (version %s)", version)
		}
		fmt.Println()

		names, err := rt.Client.ModelNames(ctx)
		if err == nil {
			available := false
			for _, name := range names {
				if name == cfg.Advisory.Model {
					available = true
					break
				}
			}
			if available {
				fmt.Printf("Model pulled:      %s\n", okStyle.Render("yes"))
			} else {
				fmt.Printf("Model pulled:      %s (run: ollama pull %s)\n",
					warningStyle.Render("no"), cfg.Advisory.Model)
			}
		}
	} else {
		fmt.Printf("Service:           %s (start it with: ollama serve)\n",
			errorStyle.Render("unreachable"))
	}

	fmt.Println()
	fmt.Printf("Material profile:  %s\n", cfg.Planner.Material)
	fmt.Printf("Machine profile:   %s\n", cfg.Planner.Machine)
	fmt.Printf("Chat timeout:      %s\n", cfg.Advisory.ChatTimeout())
	fmt.Printf("Retry budget:      %d\n", cfg.Advisory.MaxRetries)

	if path, err := config.ConfigPath(); err == nil {
		fmt.Printf("Config file:       %s\n", path)
	}

	if rt.Store != nil {
		if recs, err := rt.Store.ListRuns(0); err == nil {
			fmt.Printf("Saved analyses:    %d\n", len(recs))
		}
	}
	return nil
}

// HandleModels lists the models available on the advisory endpoint.
func HandleModels(args Args) error {
	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models, err := rt.Client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("cannot list models: %w", err)
	}
	if len(models) == 0 {
		fmt.Println("No models installed. Pull one with: ollama pull phi")
		return nil
	}

	fmt.Println("Available models:")
	for _, m := range models {
		marker := "  "
		if m.Name == rt.Config.Advisory.Model {
			marker = okStyle.Render("* ")
		}
		fmt.Printf("%s%-30s %s\n", marker, m.Name, infoStyle.Render(formatSize(m.Size)))
	}
	return nil
}

// formatSize renders a model size in human units.
func formatSize(bytes int64) string {
	const gb = 1 << 30
	const mb = 1 << 20
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.0f MB", float64(bytes)/mb)
	case bytes > 0:
		return fmt.Sprintf("%d B", bytes)
	default:
		return ""
	}
}
