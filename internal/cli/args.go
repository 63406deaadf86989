// args.go - Argument parsing helpers for turncapp commands.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "strings"

// parseGlobalFlags extracts flags that apply to every command and returns
// the remaining arguments.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]
		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
			i++
		case "-v", "--verbose":
			parsed.Verbose = true
			i++
		case "--model", "-m":
			if i+1 < len(args) {
				parsed.Model = args[i+1]
				i += 2
			} else {
				i++
			}
		case "--material":
			if i+1 < len(args) {
				parsed.Material = args[i+1]
				i += 2
			} else {
				i++
			}
		case "--machine":
			if i+1 < len(args) {
				parsed.Machine = args[i+1]
				i += 2
			} else {
				i++
			}
		default:
			if val, ok := splitEquals(arg, "--model"); ok {
				parsed.Model = val
				i++
				continue
			}
			if val, ok := splitEquals(arg, "--material"); ok {
				parsed.Material = val
				i++
				continue
			}
			if val, ok := splitEquals(arg, "--machine"); ok {
				parsed.Machine = val
				i++
				continue
			}
			remaining = append(remaining, arg)
			i++
		}
	}

	return remaining, parsed
}

// parsePlanArgs reads "<file> [flags]" for plan, chat, and tui.
func parsePlanArgs(parsed *Args, args []string) {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") && parsed.File == "" {
			parsed.File = arg
		}
	}
	parsePlanFlags(parsed, args)
}

// parsePlanFlags reads the flags shared by plan-producing commands.
func parsePlanFlags(parsed *Args, args []string) {
	i := 0
	for i < len(args) {
		arg := args[i]
		switch arg {
		case "--save", "--json":
			parsed.Save = true
			i++
		case "--md", "--markdown":
			parsed.Markdown = true
			i++
		case "--recommend", "--ai":
			parsed.Recommend = true
			i++
		case "--out", "--output":
			if i+1 < len(args) {
				parsed.OutputDir = args[i+1]
				i += 2
			} else {
				i++
			}
		default:
			if val, ok := splitEquals(arg, "--out"); ok {
				parsed.OutputDir = val
			}
			i++
		}
	}
}

// parseWatchArgs reads "watch [dir] [flags]".
func parseWatchArgs(parsed *Args, args []string) {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") && parsed.WatchDir == "" {
			parsed.WatchDir = arg
		}
	}
	parsePlanFlags(parsed, args)
}

// splitEquals handles the "--flag=value" form.
func splitEquals(arg, flag string) (string, bool) {
	prefix := flag + "="
	if strings.HasPrefix(arg, prefix) {
		return strings.TrimPrefix(arg, prefix), true
	}
	return "", false
}
