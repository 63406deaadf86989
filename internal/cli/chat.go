// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive plan-review REPL for turncapp.
//
// Handles the "turncapp chat" command: analyze a part, then converse with
// the advisory model about the resulting process plan.
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /plan, /p           Reprint the process plan
//   /score              Show the machinability breakdown
//   /model [name]       Show or switch model
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/config"
	"github.com/laveshps/turncapp/internal/export"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Supports history
// navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat analyzes the given part and runs the review REPL.
func HandleChat(args Args) error {
	if args.File == "" {
		return fmt.Errorf("chat requires a feature-summary file: turncapp chat <summary.json>")
	}

	rt, err := newRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	if !rt.Client.HealthCheck(ctx) {
		return fmt.Errorf("advisory service is not reachable at %s. Start it with: ollama serve",
			rt.Config.Advisory.Endpoint)
	}

	result, err := rt.analyzeFile(ctx, args.File)
	if err != nil {
		return fmt.Errorf("%s", capp.UserFacingError(err))
	}
	rt.recordRun(result, "")

	sess := rt.Engine.NewSession(result, rt.Config.Advisory.ChatTimeout())

	if !args.Quiet {
		printWelcome(rt, result)
	}

	input := NewChatCLI()
	defer input.Close()

	renderer := newChatRenderer()

	for {
		text, err := input.ReadInput(promptStyle.Render("turncapp> "))
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) and EOF (Ctrl+D) both exit.
			fmt.Println()
			return nil
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			if done := handleSlashCommand(text, rt, result); done {
				return nil
			}
			continue
		}
		if strings.EqualFold(text, "exit") || strings.EqualFold(text, "quit") {
			return nil
		}

		answer, err := sess.Ask(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n",
				errorStyle.Render("[Error]"), capp.UserFacingError(err))
			continue
		}
		if rt.Store != nil {
			if err := rt.Store.SaveTurn(result.RunID, "user", text); err != nil {
				rt.Log.Warn("failed to record chat turn", zap.Error(err))
			}
			if err := rt.Store.SaveTurn(result.RunID, "assistant", answer); err != nil {
				rt.Log.Warn("failed to record chat turn", zap.Error(err))
			}
		}

		fmt.Println()
		fmt.Print(renderChat(renderer, answer))
		fmt.Println()
	}
}

// printWelcome shows the session banner with the analysis summary line.
func printWelcome(rt *runtimeEnv, result *capp.Result) {
	fmt.Println(welcomeStyle.Render("turncapp plan review"))
	fmt.Printf("%s %s  %s  %s\n",
		infoStyle.Render("Part:"),
		result.Summary.SourceFile,
		fmt.Sprintf("score %d/100", result.Score.Value),
		infoStyle.Render(fmt.Sprintf("%d operations, %.1f min",
			len(result.Plan.Operations), result.Plan.TotalMinutes)))
	fmt.Printf("%s %s\n", infoStyle.Render("Model:"), rt.Config.Advisory.Model)
	fmt.Println(infoStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Println()
}

// handleSlashCommand executes an interactive command. Returns true when the
// REPL should exit.
func handleSlashCommand(input string, rt *runtimeEnv, result *capp.Result) bool {
	parts := strings.Fields(input)
	switch parts[0] {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Println(commandStyle.Render("/plan") + "   Reprint the process plan")
		fmt.Println(commandStyle.Render("/score") + "  Show the machinability breakdown")
		fmt.Println(commandStyle.Render("/model") + "  Show the advisory model")
		fmt.Println(commandStyle.Render("/quit") + "   Exit chat")

	case "/plan", "/p":
		fmt.Print(export.Report(result))

	case "/score":
		fmt.Printf("Score: %d/100 (suitable: %v)\n", result.Score.Value, result.Score.Suitable)
		for _, reason := range result.Score.Rationale {
			fmt.Println(infoStyle.Render("  - " + reason))
		}

	case "/model":
		fmt.Printf("Advisory model: %s\n", rt.Config.Advisory.Model)

	default:
		fmt.Fprintf(os.Stderr, "%s unknown command %s (try /help)\n",
			warningStyle.Render("[?]"), parts[0])
	}
	return false
}

// newChatRenderer builds a glamour renderer sized to the terminal, or nil
// when markdown rendering isn't worthwhile (piped output).
func newChatRenderer() *glamour.TermRenderer {
	if !IsStdoutTTY() {
		return nil
	}
	width := GetTerminalWidth()
	if width > 100 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return nil
	}
	return r
}

func renderChat(renderer *glamour.TermRenderer, text string) string {
	if renderer == nil {
		return text + "\n"
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
