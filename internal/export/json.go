// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders finished analyses as JSON documents and operator
// reports. The JSON field names and nesting are consumed by downstream
// tooling and must not change.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/planner"
	"github.com/laveshps/turncapp/internal/util"
)

// =============================================================================
// DOCUMENT LAYOUT
// =============================================================================

// Document is the exported process plan.
type Document struct {
	Metadata      Metadata            `json:"metadata"`
	Machinability Machinability       `json:"machinability"`
	Dimensions    Dimensions          `json:"dimensions"`
	Operations    []planner.Operation `json:"operations"`
	Tools         []ToolEntry         `json:"tools"`
	Advisory      Recommendations     `json:"ai_recommendations"`
}

// Metadata identifies the run that produced the document.
type Metadata struct {
	Generator       string `json:"generator"`
	Date            string `json:"date"`
	PartFile        string `json:"part_file"`
	MaterialProfile string `json:"material_profile"`
	MachineProfile  string `json:"machine_profile"`
}

// Machinability carries the scoring verdict.
type Machinability struct {
	Score              int  `json:"score"`
	SuitableForTurning bool `json:"suitable_for_turning"`
}

// Dimensions are the part extents with the turning-convention projection
// (diameter from the larger of x/y, length from z).
type Dimensions struct {
	Diameter float64 `json:"diameter"`
	Length   float64 `json:"length"`
	Volume   float64 `json:"volume"`
	XSize    float64 `json:"x_size"`
	YSize    float64 `json:"y_size"`
	ZSize    float64 `json:"z_size"`
}

// ToolEntry is one catalog tool with its position in the plan.
type ToolEntry struct {
	ToolID int `json:"tool_id"`
	planner.Tool
}

// Recommendations holds advisory output, empty when none was requested.
type Recommendations struct {
	Optimizations string `json:"optimizations,omitempty"`
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// generator matches the original exporter string so existing consumers keep
// recognizing the documents.
const generator = "CAPP Turning Planner"

// NewDocument builds an export document from a completed analysis.
func NewDocument(result *capp.Result) *Document {
	tools := make([]ToolEntry, 0, len(result.Plan.ToolsRequired))
	for i, tool := range result.Plan.ToolsRequired {
		tools = append(tools, ToolEntry{ToolID: i + 1, Tool: tool})
	}

	return &Document{
		Metadata: Metadata{
			Generator:       generator,
			Date:            time.Now().Format(time.RFC3339),
			PartFile:        result.Summary.SourceFile,
			MaterialProfile: result.Plan.Material.Name,
			MachineProfile:  result.Plan.Machine.Name,
		},
		Machinability: Machinability{
			Score:              result.Score.Value,
			SuitableForTurning: result.Score.Suitable,
		},
		Dimensions: Dimensions{
			Diameter: result.Summary.Diameter(),
			Length:   result.Summary.Length(),
			Volume:   result.Summary.Extents.Volume,
			XSize:    result.Summary.Extents.X,
			YSize:    result.Summary.Extents.Y,
			ZSize:    result.Summary.Extents.Z,
		},
		Operations: result.Plan.Operations,
		Tools:      tools,
		Advisory:   Recommendations{Optimizations: result.Advisory},
	}
}

// JSON renders the document.
func (d *Document) JSON(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(d, "", "  ")
	}
	return json.Marshal(d)
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// DefaultPath derives the export filename from the analyzed part.
func DefaultPath(dir, sourceFile string) string {
	stem := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	if stem == "" || stem == "." {
		stem = "plan"
	}
	return filepath.Join(dir, stem+"_turning_plan.json")
}

// SaveJSON writes the document to disk atomically, so a reader polling the
// export directory never sees a half-written file.
func SaveJSON(result *capp.Result, path string, pretty bool) error {
	data, err := NewDocument(result).JSON(pretty)
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
