// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package geometry defines the feature summary produced by the external
// geometry collaborator and the validation applied at that boundary.
//
// The solid model itself is never read here. A collaborator (typically an
// OpenCASCADE-based analyzer running out of process) traverses the model and
// emits a coarse histogram of surface and edge kinds plus bounding extents.
// That snapshot is everything the planner needs.
package geometry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// FEATURE KINDS
// =============================================================================

// SurfaceKind identifies one of the surface classes the collaborator reports.
type SurfaceKind string

const (
	SurfacePlane    SurfaceKind = "plane"
	SurfaceCylinder SurfaceKind = "cylinder"
	SurfaceCone     SurfaceKind = "cone"
	SurfaceSphere   SurfaceKind = "sphere"
	SurfaceTorus    SurfaceKind = "torus"
	SurfaceBezier   SurfaceKind = "bezier_surface"
	SurfaceBSpline  SurfaceKind = "bspline_surface"
)

// EdgeKind identifies one of the edge classes the collaborator reports.
type EdgeKind string

const (
	EdgeLine   EdgeKind = "line"
	EdgeCircle EdgeKind = "circle"
	EdgeOther  EdgeKind = "other_curve"
)

// surfaceKinds is the exhaustive set of accepted surface keys.
var surfaceKinds = map[SurfaceKind]bool{
	SurfacePlane:    true,
	SurfaceCylinder: true,
	SurfaceCone:     true,
	SurfaceSphere:   true,
	SurfaceTorus:    true,
	SurfaceBezier:   true,
	SurfaceBSpline:  true,
}

// edgeKinds is the exhaustive set of accepted edge keys.
var edgeKinds = map[EdgeKind]bool{
	EdgeLine:   true,
	EdgeCircle: true,
	EdgeOther:  true,
}

// =============================================================================
// FEATURE SUMMARY
// =============================================================================

// Extents holds the axis-aligned bounding box of the part in millimeters.
type Extents struct {
	X float64 `json:"x_size"`
	Y float64 `json:"y_size"`
	Z float64 `json:"z_size"`

	// Volume of the bounding box, mm^3. Informational only.
	Volume float64 `json:"volume,omitempty"`
}

// FeatureSummary is the immutable per-part snapshot handed to the scoring
// engine. Counts are histograms keyed by kind; absent kinds count as zero.
//
// Axis convention: the part is assumed aligned with its principal axis on Z,
// so Diameter() is max(x,y) and Length() is z. Parts not aligned this way
// will score and plan against the wrong dimensions; the collaborator is
// responsible for canonical orientation.
type FeatureSummary struct {
	Surfaces map[SurfaceKind]int `json:"surface_counts"`
	Edges    map[EdgeKind]int    `json:"edge_counts"`
	Extents  Extents             `json:"extents"`

	// SourceFile is the model file the collaborator analyzed, if known.
	SourceFile string `json:"source_file,omitempty"`
}

// SurfaceCount returns the count for one surface kind (zero when absent).
func (s *FeatureSummary) SurfaceCount(kind SurfaceKind) int {
	return s.Surfaces[kind]
}

// EdgeCount returns the count for one edge kind (zero when absent).
func (s *FeatureSummary) EdgeCount(kind EdgeKind) int {
	return s.Edges[kind]
}

// TotalSurfaces returns the sum over all surface kinds.
func (s *FeatureSummary) TotalSurfaces() int {
	total := 0
	for _, n := range s.Surfaces {
		total += n
	}
	return total
}

// CylindricalRatio returns cylinder count over total surfaces, or 0 for an
// empty histogram.
func (s *FeatureSummary) CylindricalRatio() float64 {
	total := s.TotalSurfaces()
	if total == 0 {
		return 0
	}
	return float64(s.Surfaces[SurfaceCylinder]) / float64(total)
}

// ComplexSurfaces returns the combined bezier + b-spline count.
func (s *FeatureSummary) ComplexSurfaces() int {
	return s.Surfaces[SurfaceBezier] + s.Surfaces[SurfaceBSpline]
}

// Diameter returns the stock diameter in mm: max of the X and Y extents.
func (s *FeatureSummary) Diameter() float64 {
	if s.Extents.X > s.Extents.Y {
		return s.Extents.X
	}
	return s.Extents.Y
}

// Length returns the part length in mm: the Z extent.
func (s *FeatureSummary) Length() float64 {
	return s.Extents.Z
}

// =============================================================================
// VALIDATION
// =============================================================================

// InvalidGeometryError reports a summary that cannot be scored: degenerate
// extents or a negative count. It is never retried.
type InvalidGeometryError struct {
	Field  string
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return "invalid geometry: " + e.Field + ": " + e.Reason
}

// Validate checks the scoring-engine preconditions: all extents strictly
// positive and all counts non-negative. A zero-extent part is rejected here,
// before it can reach the engine.
func (s *FeatureSummary) Validate() error {
	axes := []struct {
		name  string
		value float64
	}{
		{"x_size", s.Extents.X},
		{"y_size", s.Extents.Y},
		{"z_size", s.Extents.Z},
	}
	for _, a := range axes {
		if a.value <= 0 {
			return &InvalidGeometryError{
				Field:  a.name,
				Reason: fmt.Sprintf("extent must be positive, got %g", a.value),
			}
		}
	}
	for kind, n := range s.Surfaces {
		if n < 0 {
			return &InvalidGeometryError{
				Field:  "surface_counts." + string(kind),
				Reason: fmt.Sprintf("count must be non-negative, got %d", n),
			}
		}
	}
	for kind, n := range s.Edges {
		if n < 0 {
			return &InvalidGeometryError{
				Field:  "edge_counts." + string(kind),
				Reason: fmt.Sprintf("count must be non-negative, got %d", n),
			}
		}
	}
	return nil
}

// =============================================================================
// COLLABORATOR BOUNDARY
// =============================================================================

// Analyzer is the boundary to the external geometry kernel. Implementations
// read a solid model and return its feature summary.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*FeatureSummary, error)
}

// AnalysisError wraps a collaborator failure (unreadable file, kernel error).
type AnalysisError struct {
	Path  string
	Cause error
}

func (e *AnalysisError) Error() string {
	return "geometry analysis failed for " + e.Path + ": " + e.Cause.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// ParseSummary decodes a collaborator-produced JSON summary, rejecting
// unknown fields and unknown histogram keys. The decoded summary is
// validated before being returned.
func ParseSummary(data []byte) (*FeatureSummary, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var summary FeatureSummary
	if err := dec.Decode(&summary); err != nil {
		return nil, &InvalidGeometryError{Field: "summary", Reason: err.Error()}
	}

	for kind := range summary.Surfaces {
		if !surfaceKinds[kind] {
			return nil, &InvalidGeometryError{
				Field:  "surface_counts",
				Reason: "unknown surface kind " + string(kind),
			}
		}
	}
	for kind := range summary.Edges {
		if !edgeKinds[kind] {
			return nil, &InvalidGeometryError{
				Field:  "edge_counts",
				Reason: "unknown edge kind " + string(kind),
			}
		}
	}

	if err := summary.Validate(); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SummaryFileAnalyzer is an Analyzer that reads precomputed JSON summaries
// from disk. It is the default collaborator when no geometry kernel is
// wired in: the kernel writes one summary file per part, and this reads it.
type SummaryFileAnalyzer struct{}

// Analyze reads and validates a summary JSON file.
func (SummaryFileAnalyzer) Analyze(ctx context.Context, path string) (*FeatureSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &AnalysisError{Path: path, Cause: err}
	}
	summary, err := ParseSummary(data)
	if err != nil {
		return nil, err
	}
	if summary.SourceFile == "" {
		summary.SourceFile = path
	}
	return summary, nil
}
