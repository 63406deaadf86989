// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package capp ties the scoring engine, operation planner and advisory
// client together behind the surface the presentation layer calls.
package capp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/laveshps/turncapp/internal/advisory"
	"github.com/laveshps/turncapp/internal/geometry"
	"github.com/laveshps/turncapp/internal/planner"
	"github.com/laveshps/turncapp/internal/pump"
	"github.com/laveshps/turncapp/internal/scoring"
	"github.com/laveshps/turncapp/internal/session"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine is the process-planning facade. Scoring and planning are pure and
// synchronous; advisory calls block on the network and belong on worker
// goroutines (see Go).
type Engine struct {
	client  *advisory.Client
	planner *planner.Planner
	log     *zap.Logger

	// planTimeout bounds one-shot recommendation calls; chat calls use the
	// client's own longer limit.
	planTimeout time.Duration
}

// Options tunes engine construction.
type Options struct {
	Planner     *planner.Planner
	PlanTimeout time.Duration
}

// NewEngine creates an engine around an advisory client.
func NewEngine(client *advisory.Client, log *zap.Logger, opts Options) *Engine {
	if opts.Planner == nil {
		opts.Planner = planner.New()
	}
	if opts.PlanTimeout <= 0 {
		opts.PlanTimeout = 120 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		client:      client,
		planner:     opts.Planner,
		log:         log.Named("capp"),
		planTimeout: opts.PlanTimeout,
	}
}

// Result is one completed analysis, handed to the presentation layer as an
// immutable snapshot.
type Result struct {
	RunID    uuid.UUID
	Summary  *geometry.FeatureSummary
	Score    scoring.MachinabilityScore
	Plan     *planner.OperationPlan
	Advisory string
}

// =============================================================================
// SCORING AND PLANNING
// =============================================================================

// ScoreAndPlan scores a part and, when suitable, plans its operations.
// Unsuitable parts return NotMachinableError with no partial plan; callers
// branch on that rather than inspecting the plan.
func (e *Engine) ScoreAndPlan(summary *geometry.FeatureSummary) (scoring.MachinabilityScore, *planner.OperationPlan, error) {
	score, err := scoring.Score(summary)
	if err != nil {
		return scoring.MachinabilityScore{}, nil, err
	}

	plan, err := e.planner.Plan(summary, score)
	if err != nil {
		return score, nil, err
	}

	e.log.Info("part planned",
		zap.String("file", summary.SourceFile),
		zap.Int("score", score.Value),
		zap.Int("operations", len(plan.Operations)),
		zap.Float64("total_minutes", plan.TotalMinutes))
	return score, plan, nil
}

// Analyze runs the full synchronous pipeline for one part. Advisory text is
// additive: a failed recommendation call leaves the plan usable and records
// the failure in the returned error while still returning the result.
func (e *Engine) Analyze(ctx context.Context, summary *geometry.FeatureSummary, withRecommendations bool) (*Result, error) {
	score, plan, err := e.ScoreAndPlan(summary)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:   uuid.New(),
		Summary: summary,
		Score:   score,
		Plan:    plan,
	}

	if withRecommendations {
		text, err := e.Recommendations(ctx, summary, score, plan)
		if err != nil {
			return result, err
		}
		result.Advisory = text
	}
	return result, nil
}

// NewSession starts a chat session scoped to one analyzed part.
func (e *Engine) NewSession(result *Result, chatTimeout time.Duration) *session.Session {
	return session.New(e.client, result.Summary, result.Score, result.Plan, session.Config{
		Timeout: chatTimeout,
	})
}

// =============================================================================
// RECOMMENDATIONS
// =============================================================================

// Recommendations asks the advisory model to review a finished plan.
func (e *Engine) Recommendations(ctx context.Context, summary *geometry.FeatureSummary, score scoring.MachinabilityScore, plan *planner.OperationPlan) (string, error) {
	req := e.client.NewRequest(recommendationPrompt(summary, score, plan))
	req.Timeout = e.planTimeout

	text, err := e.client.Do(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("advisory model returned an empty response")
	}
	return text, nil
}

// recommendationPrompt renders the one-shot review prompt. Only the first
// few operations are listed; small models lose the thread on long prompts.
func recommendationPrompt(summary *geometry.FeatureSummary, score scoring.MachinabilityScore, plan *planner.OperationPlan) string {
	var ops strings.Builder
	for i, op := range plan.Operations {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&ops, "  - %s: %s\n", op.Name, op.Description)
	}

	return fmt.Sprintf(`Review this turning process plan for a lathe operation:

Part Specifications:
  - Diameter: %.1f mm
  - Length: %.1f mm
  - Cylindrical faces: %d
  - Machinability score: %d/100
  - Workpiece material: %s
  - Lathe machine profile: %s

Planned Operations:
%s
Suggest optimizations for:
1. Tool selection improvements
2. Speed/feed optimization
3. Coolant strategy
4. Setup considerations
5. Quality improvements`,
		summary.Diameter(), summary.Length(),
		summary.SurfaceCount(geometry.SurfaceCylinder),
		score.Value,
		plan.Material.Name, plan.Machine.Name,
		ops.String())
}

// =============================================================================
// WORKER BOUNDARY
// =============================================================================

// Go runs one advisory-backed operation on a worker goroutine. The worker
// never touches presentation state: its outcome, success or failure, becomes
// a queued message. Panics are caught here too, so the UI loop can never be
// taken down by a worker.
func (e *Engine) Go(queue *pump.Queue, runID uuid.UUID, fn func(ctx context.Context) (string, error)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("worker panic", zap.Any("panic", r))
				queue.Enqueue(pump.StatusMessage(runID, fmt.Sprintf("Internal error: %v", r)))
			}
		}()

		text, err := fn(context.Background())
		if err != nil {
			queue.Enqueue(pump.StatusMessage(runID, UserFacingError(err)))
			return
		}
		queue.Enqueue(pump.ChatMessage(runID, pump.SenderAssistant, text))
	}()
}

// AskAsync runs one chat turn on a worker.
func (e *Engine) AskAsync(queue *pump.Queue, runID uuid.UUID, sess *session.Session, question string) {
	e.Go(queue, runID, func(ctx context.Context) (string, error) {
		return sess.Ask(ctx, question)
	})
}

// RecommendAsync runs the one-shot plan review on a worker.
func (e *Engine) RecommendAsync(queue *pump.Queue, result *Result) {
	e.Go(queue, result.RunID, func(ctx context.Context) (string, error) {
		return e.Recommendations(ctx, result.Summary, result.Score, result.Plan)
	})
}

// UserFacingError renders any pipeline error as display text with a remedy
// where one is known.
func UserFacingError(err error) string {
	var clientErr *advisory.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.UserMessage()
	}

	var notMachinable *planner.NotMachinableError
	if errors.As(err, &notMachinable) {
		return notMachinable.Error() + ". Consider 3-axis milling or 3D printing instead."
	}

	var invalid *geometry.InvalidGeometryError
	if errors.As(err, &invalid) {
		return "Geometry rejected: " + invalid.Error()
	}

	return "Error: " + err.Error()
}
