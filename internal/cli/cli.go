// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for turncapp.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdPlan
	CmdChat
	CmdModels
	CmdStatus
	CmdHistory
	CmdWatch
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	Model    string
	Material string
	Machine  string

	// Command-specific
	File       string // feature-summary JSON to analyze
	Subcommand string
	Save       bool   // write the JSON plan document
	Markdown   bool   // write the Markdown plan
	Recommend  bool   // request one-shot AI recommendations
	OutputDir  string // export directory override
	WatchDir   string // drop directory override

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `turncapp - computer-aided process planning for lathe turning

Turncapp scores part geometry for turning machinability, generates a
sequenced operation plan with speeds and feeds, and reviews the plan with a
local Ollama model.

Usage:
  turncapp <summary.json>        Analyze a part and open the review TUI
  turncapp plan <summary.json>   Print the process plan
  turncapp chat <summary.json>   Interactive plan review chat
  turncapp models                List models on the advisory endpoint
  turncapp status, s             Show advisory endpoint and config status
  turncapp history [subcommand]  Browse saved analyses
  turncapp watch [dir]           Analyze summaries dropped into a directory
  turncapp version               Show version
  turncapp help                  Show this help

Plan Command:
  turncapp plan shaft.json             Print the operator report
  turncapp plan shaft.json --save      Also write shaft_turning_plan.json
  turncapp plan shaft.json --md        Also write the Markdown plan
  turncapp plan shaft.json --recommend Include AI optimization notes
    --out DIR                          Export directory (default: config)
    --material NAME                    Material profile override
    --machine NAME                     Machine profile override

History Commands:
  turncapp history list            List saved analyses (default)
  turncapp history show <id>       Show a saved analysis report
  turncapp history transcript <id> Show a saved chat transcript
  turncapp history delete <id>     Delete a saved analysis
  turncapp history clear --confirm Delete all saved analyses

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug logging
  --model NAME    Override the advisory model
  --material NAME Material profile (see plan command)
  --machine NAME  Machine profile

Examples:
  turncapp shaft.json                       Analyze and review interactively
  turncapp plan shaft.json --save           Plan and export JSON
  turncapp chat shaft.json --model phi      Review with a specific model
  turncapp watch ./drop --out ./plans       Batch mode for a drop directory

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("turncapp version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs is the testable core of Parse.
func parseArgs(args []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(args)

	// Bare invocation opens the TUI on nothing; the TUI needs a part, so
	// that path prints usage from main.
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	rest := remaining[1:]
	parsed.Raw = rest

	switch cmd {
	case "tui":
		parsePlanArgs(&parsed, rest)
		return CmdTUI, parsed

	case "plan", "analyze":
		parsePlanArgs(&parsed, rest)
		return CmdPlan, parsed

	case "chat":
		parsePlanArgs(&parsed, rest)
		return CmdChat, parsed

	case "models", "model":
		return CmdModels, parsed

	case "status", "s":
		return CmdStatus, parsed

	case "history", "runs":
		if len(rest) > 0 {
			parsed.Subcommand = rest[0]
		}
		return CmdHistory, parsed

	case "watch":
		parseWatchArgs(&parsed, rest)
		return CmdWatch, parsed

	case "version", "--version", "-V":
		return CmdVersion, parsed

	case "help", "--help", "-h":
		return CmdHelp, parsed

	default:
		// A JSON file as the first argument is shorthand for the TUI.
		if strings.HasSuffix(cmd, ".json") || fileExists(remaining[0]) {
			parsed.File = remaining[0]
			parsePlanFlags(&parsed, rest)
			return CmdTUI, parsed
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", remaining[0])
		return CmdHelp, parsed
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
