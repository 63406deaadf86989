// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Shared wiring for turncapp commands: config, logging, clients.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/laveshps/turncapp/internal/advisory"
	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/config"
	"github.com/laveshps/turncapp/internal/geometry"
	"github.com/laveshps/turncapp/internal/logging"
	"github.com/laveshps/turncapp/internal/planner"
	"github.com/laveshps/turncapp/internal/scoring"
	"github.com/laveshps/turncapp/internal/storage"
)

// runtimeEnv bundles everything a command handler needs.
type runtimeEnv struct {
	Config *config.Config
	Log    *zap.Logger
	Client *advisory.Client
	Engine *capp.Engine
	Store  *storage.HistoryStore // nil when the history DB cannot open
}

// newRuntime loads configuration, applies CLI overrides, and builds the
// advisory client and planning engine.
func newRuntime(args Args) (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if args.Model != "" {
		cfg.Advisory.Model = args.Model
	}
	if args.Material != "" {
		cfg.Planner.Material = args.Material
	}
	if args.Machine != "" {
		cfg.Planner.Machine = args.Machine
	}
	if args.OutputDir != "" {
		cfg.Export.Dir = args.OutputDir
	}
	if args.Verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		// A broken log path shouldn't block machining work.
		log = zap.NewNop()
	}

	client, err := advisory.NewClient(&advisory.ClientConfig{
		BaseURL:           cfg.Advisory.Endpoint,
		Model:             cfg.Advisory.Model,
		Timeout:           cfg.Advisory.ChatTimeout(),
		MaxRetries:        cfg.Advisory.MaxRetries,
		Stream:            cfg.Advisory.Stream,
		RequestsPerMinute: cfg.Advisory.RequestsPerMinute,
	}, log)
	if err != nil {
		return nil, err
	}

	material, err := planner.MaterialByName(cfg.Planner.Material)
	if err != nil {
		return nil, err
	}
	machine, err := planner.MachineByName(cfg.Planner.Machine)
	if err != nil {
		return nil, err
	}

	engine := capp.NewEngine(client, log, capp.Options{
		Planner:     planner.NewWithProfiles(material, machine),
		PlanTimeout: cfg.Advisory.PlanTimeout(),
	})

	store, err := storage.OpenDefault()
	if err != nil {
		log.Warn("history database unavailable", zap.Error(err))
		store = nil
	}

	return &runtimeEnv{
		Config: cfg,
		Log:    log,
		Client: client,
		Engine: engine,
		Store:  store,
	}, nil
}

// Close releases runtime resources.
func (r *runtimeEnv) Close() {
	if r.Store != nil {
		r.Store.Close()
	}
	r.Log.Sync()
}

// analyzeFile reads a feature-summary file and runs scoring and planning.
// Unsuitable parts are an error here; interactive surfaces need a plan to
// talk about.
func (r *runtimeEnv) analyzeFile(ctx context.Context, path string) (*capp.Result, error) {
	var analyzer geometry.SummaryFileAnalyzer
	summary, err := analyzer.Analyze(ctx, path)
	if err != nil {
		return nil, err
	}

	return r.Engine.Analyze(ctx, summary, false)
}

// analyzeFileForReport is the lenient variant for report surfaces: an
// unsuitable part comes back as a plan-less result so the rejection report
// can still be printed and recorded.
func (r *runtimeEnv) analyzeFileForReport(ctx context.Context, path string) (*capp.Result, error) {
	var analyzer geometry.SummaryFileAnalyzer
	summary, err := analyzer.Analyze(ctx, path)
	if err != nil {
		return nil, err
	}

	result, err := r.Engine.Analyze(ctx, summary, false)
	if err != nil {
		var notMachinable *planner.NotMachinableError
		if !errors.As(err, &notMachinable) {
			return nil, err
		}
		score, scoreErr := scoring.Score(summary)
		if scoreErr != nil {
			return nil, scoreErr
		}
		return &capp.Result{
			RunID:   uuid.New(),
			Summary: summary,
			Score:   score,
		}, nil
	}
	return result, nil
}

// recordRun persists a completed analysis in history.
func (r *runtimeEnv) recordRun(result *capp.Result, document string) {
	if r.Store == nil {
		return
	}
	rec := &storage.AnalysisRecord{
		RunID:      result.RunID,
		SourceFile: result.Summary.SourceFile,
		Score:      result.Score.Value,
		Suitable:   result.Score.Suitable,
		Document:   document,
	}
	if result.Plan != nil {
		rec.Material = result.Plan.Material.Name
		rec.Machine = result.Plan.Machine.Name
		rec.TotalMinutes = result.Plan.TotalMinutes
	}
	if _, err := r.Store.SaveRun(rec); err != nil {
		r.Log.Warn("failed to record analysis", zap.Error(err))
	}
}
