// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseArgsCommands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"bare", nil, CmdTUI},
		{"plan", []string{"plan", "shaft.json"}, CmdPlan},
		{"analyze alias", []string{"analyze", "shaft.json"}, CmdPlan},
		{"chat", []string{"chat", "shaft.json"}, CmdChat},
		{"models", []string{"models"}, CmdModels},
		{"model alias", []string{"model"}, CmdModels},
		{"status", []string{"status"}, CmdStatus},
		{"status short", []string{"s"}, CmdStatus},
		{"history", []string{"history"}, CmdHistory},
		{"runs alias", []string{"runs"}, CmdHistory},
		{"watch", []string{"watch", "./drop"}, CmdWatch},
		{"version", []string{"version"}, CmdVersion},
		{"version flag", []string{"--version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"help flag", []string{"-h"}, CmdHelp},
		{"json shorthand", []string{"shaft.json"}, CmdTUI},
		{"unknown", []string{"frobnicate"}, CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := parseArgs(tt.argv)
			if got != tt.want {
				t.Errorf("parseArgs(%v) = %v, want %v", tt.argv, got, tt.want)
			}
		})
	}
}

func TestParseArgsJSONShorthandSetsFile(t *testing.T) {
	cmd, args := parseArgs([]string{"shaft.json", "--save"})
	if cmd != CmdTUI {
		t.Fatalf("cmd = %v, want CmdTUI", cmd)
	}
	if args.File != "shaft.json" {
		t.Errorf("File = %q, want shaft.json", args.File)
	}
	if !args.Save {
		t.Error("expected Save to be set")
	}
}

func TestParseArgsExistingFileShorthand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.summary")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd, args := parseArgs([]string{path})
	if cmd != CmdTUI {
		t.Fatalf("cmd = %v, want CmdTUI", cmd)
	}
	if args.File != path {
		t.Errorf("File = %q, want %q", args.File, path)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	remaining, parsed := parseGlobalFlags([]string{
		"-q", "--model", "phi", "--material=Aluminum 6061", "plan", "shaft.json",
	})

	if !parsed.Quiet {
		t.Error("expected Quiet")
	}
	if parsed.Model != "phi" {
		t.Errorf("Model = %q, want phi", parsed.Model)
	}
	if parsed.Material != "Aluminum 6061" {
		t.Errorf("Material = %q", parsed.Material)
	}
	if len(remaining) != 2 || remaining[0] != "plan" || remaining[1] != "shaft.json" {
		t.Errorf("remaining = %v", remaining)
	}
}

func TestParseGlobalFlagsVerbose(t *testing.T) {
	_, parsed := parseGlobalFlags([]string{"-v", "status"})
	if !parsed.Verbose {
		t.Error("expected Verbose")
	}
}

func TestParsePlanFlags(t *testing.T) {
	cmd, args := parseArgs([]string{
		"plan", "shaft.json", "--save", "--md", "--recommend", "--out", "plans",
	})
	if cmd != CmdPlan {
		t.Fatalf("cmd = %v, want CmdPlan", cmd)
	}
	if args.File != "shaft.json" {
		t.Errorf("File = %q", args.File)
	}
	if !args.Save || !args.Markdown || !args.Recommend {
		t.Errorf("flags = save:%v md:%v recommend:%v", args.Save, args.Markdown, args.Recommend)
	}
	if args.OutputDir != "plans" {
		t.Errorf("OutputDir = %q, want plans", args.OutputDir)
	}
}

func TestParsePlanFlagsEqualsForm(t *testing.T) {
	_, args := parseArgs([]string{"plan", "shaft.json", "--out=exports"})
	if args.OutputDir != "exports" {
		t.Errorf("OutputDir = %q, want exports", args.OutputDir)
	}
}

func TestParseHistorySubcommand(t *testing.T) {
	cmd, args := parseArgs([]string{"history", "show", "ab12cd34"})
	if cmd != CmdHistory {
		t.Fatalf("cmd = %v, want CmdHistory", cmd)
	}
	if args.Subcommand != "show" {
		t.Errorf("Subcommand = %q, want show", args.Subcommand)
	}
	if len(args.Raw) != 2 || args.Raw[1] != "ab12cd34" {
		t.Errorf("Raw = %v", args.Raw)
	}
}

func TestParseWatchDir(t *testing.T) {
	_, args := parseArgs([]string{"watch", "./drop", "--out", "plans"})
	if args.WatchDir != "./drop" {
		t.Errorf("WatchDir = %q, want ./drop", args.WatchDir)
	}
	if args.OutputDir != "plans" {
		t.Errorf("OutputDir = %q, want plans", args.OutputDir)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, ""},
		{512, "512 B"},
		{5 << 20, "5 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.bytes); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestGetTerminalWidthFallback(t *testing.T) {
	// Tests run without a TTY, so the default width applies.
	if w := GetTerminalWidth(); w < 40 {
		t.Errorf("GetTerminalWidth() = %d, want >= 40", w)
	}
}
