// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/geometry"
	"github.com/laveshps/turncapp/internal/planner"
	"github.com/laveshps/turncapp/internal/scoring"
)

// shaftResult builds a full analysis for a well-behaved turned shaft.
func shaftResult(t *testing.T) *capp.Result {
	t.Helper()

	summary := &geometry.FeatureSummary{
		Surfaces: map[geometry.SurfaceKind]int{
			geometry.SurfaceCylinder: 40,
			geometry.SurfacePlane:    2,
		},
		Edges: map[geometry.EdgeKind]int{
			geometry.EdgeCircle: 20,
		},
		Extents:    geometry.Extents{X: 40, Y: 40, Z: 90, Volume: 113097.34},
		SourceFile: "drive_shaft.step",
	}

	score, err := scoring.Score(summary)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	plan, err := planner.New().Plan(summary, score)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	return &capp.Result{
		RunID:    uuid.New(),
		Summary:  summary,
		Score:    score,
		Plan:     plan,
		Advisory: "1. Increase roughing feed for rigid setups.",
	}
}

func TestDocumentLayout(t *testing.T) {
	result := shaftResult(t)

	data, err := NewDocument(result).JSON(true)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}

	meta, ok := doc["metadata"].(map[string]interface{})
	if !ok {
		t.Fatal("document missing metadata object")
	}
	if got := meta["generator"]; got != "CAPP Turning Planner" {
		t.Errorf("generator = %v, want CAPP Turning Planner", got)
	}
	if got := meta["part_file"]; got != "drive_shaft.step" {
		t.Errorf("part_file = %v", got)
	}

	mach, ok := doc["machinability"].(map[string]interface{})
	if !ok {
		t.Fatal("document missing machinability object")
	}
	if got := mach["suitable_for_turning"]; got != true {
		t.Errorf("suitable_for_turning = %v, want true", got)
	}

	dims, ok := doc["dimensions"].(map[string]interface{})
	if !ok {
		t.Fatal("document missing dimensions object")
	}
	if got := dims["diameter"]; got != 40.0 {
		t.Errorf("diameter = %v, want 40", got)
	}
	if got := dims["length"]; got != 90.0 {
		t.Errorf("length = %v, want 90", got)
	}

	ops, ok := doc["operations"].([]interface{})
	if !ok || len(ops) == 0 {
		t.Fatal("document missing operations array")
	}
	first := ops[0].(map[string]interface{})
	for _, key := range []string{"operation_id", "type", "name", "tool", "estimated_time"} {
		if _, present := first[key]; !present {
			t.Errorf("operation missing key %q", key)
		}
	}

	tools, ok := doc["tools"].([]interface{})
	if !ok || len(tools) == 0 {
		t.Fatal("document missing tools array")
	}
	if _, present := tools[0].(map[string]interface{})["tool_id"]; !present {
		t.Error("tool entry missing tool_id")
	}

	ai, ok := doc["ai_recommendations"].(map[string]interface{})
	if !ok {
		t.Fatal("document missing ai_recommendations object")
	}
	if got := ai["optimizations"]; got != "1. Increase roughing feed for rigid setups." {
		t.Errorf("optimizations = %v", got)
	}
}

func TestDefaultPath(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"step file", "bracket.step", "bracket_turning_plan.json"},
		{"nested path", "parts/shaft.stl", "shaft_turning_plan.json"},
		{"no extension", "pulley", "pulley_turning_plan.json"},
		{"empty", "", "plan_turning_plan.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultPath("out", tt.source)
			if got != filepath.Join("out", tt.want) {
				t.Errorf("DefaultPath(%q) = %q, want %q", tt.source, got, filepath.Join("out", tt.want))
			}
		})
	}
}

func TestSaveJSONWritesFile(t *testing.T) {
	result := shaftResult(t)
	path := filepath.Join(t.TempDir(), "shaft_turning_plan.json")

	if err := SaveJSON(result, path, true); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !json.Valid(data) {
		t.Error("export is not valid JSON")
	}
}

func TestReportContents(t *testing.T) {
	result := shaftResult(t)
	report := Report(result)

	wantSections := []string{
		"TURNING PROCESS PLAN (CAPP SYSTEM)",
		"PART INFORMATION:",
		"File: drive_shaft.step",
		"TURNING MACHINABILITY:",
		"Suitable for Turning: YES",
		"PART DIMENSIONS:",
		"Diameter: 40.00 mm",
		"TURNING OPERATIONS SEQUENCE:",
		"Operation 1: Face & Center",
		"TOTAL ESTIMATED MACHINING TIME:",
		"+/-30%",
		"REQUIRED TURNING TOOLS:",
		"AI OPTIMIZATION RECOMMENDATIONS:",
		"SETUP NOTES:",
		"End of Process Plan",
	}
	for _, want := range wantSections {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestReportUnsuitablePart(t *testing.T) {
	summary := &geometry.FeatureSummary{
		Surfaces: map[geometry.SurfaceKind]int{
			geometry.SurfaceBezier: 10,
			geometry.SurfacePlane:  6,
		},
		Edges:      map[geometry.EdgeKind]int{},
		Extents:    geometry.Extents{X: 50, Y: 60, Z: 30, Volume: 90000},
		SourceFile: "sculpture.step",
	}
	score, err := scoring.Score(summary)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	result := &capp.Result{Summary: summary, Score: score}

	report := Report(result)
	if !strings.Contains(report, "Suitable for Turning: NO") {
		t.Error("report should mark part unsuitable")
	}
	if !strings.Contains(report, "3-axis milling or 3D printing") {
		t.Error("report should suggest alternative processes")
	}
	if strings.Contains(report, "TURNING OPERATIONS SEQUENCE:") {
		t.Error("unsuitable report should not list operations")
	}
}

func TestMarkdownRender(t *testing.T) {
	result := shaftResult(t)

	data, err := (&MarkdownExporter{}).Render(result)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"# Turning Process Plan: drive\\_shaft.step",
		"| # | Operation | Tool |",
		"## Required Tools",
		"## AI Optimization Recommendations",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestExportToFileNaming(t *testing.T) {
	result := shaftResult(t)
	dir := t.TempDir()

	path, err := ExportJSON(result, &Options{OutputDir: dir, Pretty: true})
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if filepath.Base(path) != "drive_shaft_turning_plan.json" {
		t.Errorf("export filename = %q", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}

	path, err = ExportReport(result, &Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}
	if filepath.Base(path) != "drive_shaft_turning_plan.txt" {
		t.Errorf("report filename = %q", filepath.Base(path))
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"drive shaft", "drive_shaft"},
		{"a/b:c", "a-b-c"},
		{"", "part"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
