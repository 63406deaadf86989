// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the bounded conversation state for chatting about an
// analyzed part. A session is created when a part is analyzed and discarded
// when a different part is analyzed; there is no cross-part memory.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/laveshps/turncapp/internal/geometry"
	"github.com/laveshps/turncapp/internal/planner"
	"github.com/laveshps/turncapp/internal/scoring"
)

// DefaultMaxTurns is how many conversation turns (user and assistant entries
// combined) are kept for follow-up prompts. Older turns are dropped, not
// summarized.
const DefaultMaxTurns = 5

// =============================================================================
// TURNS
// =============================================================================

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// =============================================================================
// SESSION
// =============================================================================

// Querier is the completion surface the session needs from the advisory
// client.
type Querier interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config controls session behavior.
type Config struct {
	// MaxTurns bounds the history kept for prompts (default 5).
	MaxTurns int

	// Timeout bounds one chat call. Zero defers to the client's own limit.
	Timeout time.Duration
}

// Session wraps the advisory client with plan context and bounded history.
// It is owned by one worker at a time; the application serializes chat turns
// by disabling input while a call is in flight.
type Session struct {
	ID uuid.UUID

	client  Querier
	config  Config
	context string // serialized plan context, fixed for the session lifetime
	turns   []Turn
}

// New creates a session for an analyzed part. The plan context is rendered
// once up front; the summary, score and plan are immutable snapshots so the
// session never needs them again.
func New(client Querier, summary *geometry.FeatureSummary, score scoring.MachinabilityScore, plan *planner.OperationPlan, config Config) *Session {
	if config.MaxTurns <= 0 {
		config.MaxTurns = DefaultMaxTurns
	}
	return &Session{
		ID:      uuid.New(),
		client:  client,
		config:  config,
		context: PlanContext(summary, score, plan),
	}
}

// Ask sends a question about the analyzed part and returns the answer.
// The user turn is recorded before the call, so a failed turn keeps its
// question in history and resubmitting retains context. The assistant turn
// is only recorded on success.
func (s *Session) Ask(ctx context.Context, userText string) (string, error) {
	s.turns = append(s.turns, Turn{Role: RoleUser, Text: userText})
	s.prune()

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	answer, err := s.client.Complete(ctx, s.buildPrompt(userText))
	if err != nil {
		return "", err
	}

	s.turns = append(s.turns, Turn{Role: RoleAssistant, Text: answer})
	s.prune()
	return answer, nil
}

// Turns returns the retained conversation history, most recent last.
func (s *Session) Turns() []Turn {
	return s.turns
}

func (s *Session) prune() {
	if len(s.turns) > s.config.MaxTurns {
		s.turns = s.turns[len(s.turns)-s.config.MaxTurns:]
	}
}

// =============================================================================
// PROMPT CONSTRUCTION
// =============================================================================

// buildPrompt splices the plan context and retained history around the new
// question. The question is already the last user turn in history, so it is
// excluded from the history block to avoid repeating it.
func (s *Session) buildPrompt(question string) string {
	var b strings.Builder
	b.WriteString("You are an expert manufacturing engineer with deep knowledge of CAPP (Computer-Aided Process Planning) and turning operations.\n\n")
	b.WriteString("CURRENT ANALYSIS CONTEXT:\n")
	b.WriteString(s.context)
	b.WriteString("\n")

	history := s.turns[:len(s.turns)-1]
	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range history {
			switch turn.Role {
			case RoleUser:
				b.WriteString("User: ")
			case RoleAssistant:
				b.WriteString("Assistant: ")
			}
			b.WriteString(turn.Text)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nUser's Question: ")
	b.WriteString(question)
	b.WriteString("\n\nProvide a detailed, technical response based on the analyzed part and your expertise in turning operations.")
	return b.String()
}

// PlanContext renders the analysis results as prompt context.
func PlanContext(summary *geometry.FeatureSummary, score scoring.MachinabilityScore, plan *planner.OperationPlan) string {
	if plan == nil {
		return "No analysis available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", summary.SourceFile)
	b.WriteString("Analysis Complete: Yes\n\n")

	b.WriteString("Process Plan Summary:\n")
	fmt.Fprintf(&b, "- Total Operations: %d\n", len(plan.Operations))
	fmt.Fprintf(&b, "- Required Tools: %d\n", len(plan.ToolsRequired))
	fmt.Fprintf(&b, "- Total Machining Time: %.1f min\n", plan.TotalMinutes)
	fmt.Fprintf(&b, "- Turning Score: %d/100\n", score.Value)

	b.WriteString("\nOperations:\n")
	if len(plan.Operations) == 0 {
		b.WriteString("  - No operations defined\n")
	}
	for i, op := range plan.Operations {
		fmt.Fprintf(&b, "  %d. %s - %s: %d RPM, Feed %.2f mm/rev, DOC %.1f mm, Time %.1f min\n",
			i+1, op.Name, op.Kind, op.SpindleSpeedRPM, op.FeedRateMMPerRev, op.DepthOfCutMM, op.EstimatedMinutes)
	}

	b.WriteString("\nTools Required:\n")
	if len(plan.ToolsRequired) == 0 {
		b.WriteString("  - No tools defined\n")
	}
	for i, tool := range plan.ToolsRequired {
		fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, tool.Name, tool.Designation)
	}

	return b.String()
}
