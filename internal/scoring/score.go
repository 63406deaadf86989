// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scoring computes the lathe machinability score for a part.
//
// The score is a 0-100 heuristic tuned against rotational parts (shafts,
// bottles, bushings). The weights and thresholds are a fixed contract:
// downstream consumers compare scores across versions, so they must not be
// "improved" without a migration.
package scoring

import (
	"fmt"
	"math"

	"github.com/laveshps/turncapp/internal/geometry"
)

// SuitabilityThreshold is the minimum score considered machinable on a lathe.
const SuitabilityThreshold = 40

// =============================================================================
// SCORE
// =============================================================================

// MachinabilityScore is the scoring result for one feature summary. Created
// once per summary and never mutated.
type MachinabilityScore struct {
	// Value is the clamped integer score in [0,100].
	Value int

	// Suitable reports whether the part clears SuitabilityThreshold.
	Suitable bool

	// Rationale lists one human-readable line per contribution applied,
	// in the order contributions were evaluated.
	Rationale []string
}

// Feasibility maps the score onto the coarse High/Medium/Low bands used in
// reports.
func (s MachinabilityScore) Feasibility() string {
	switch {
	case s.Value > 70:
		return "High"
	case s.Value > 40:
		return "Medium"
	default:
		return "Low"
	}
}

// =============================================================================
// SCORING ENGINE
// =============================================================================

// Score computes the machinability score for a validated feature summary.
// It is pure and deterministic: no I/O, and the only failure mode is a
// summary that fails validation.
//
// Contributions, in order:
//   - cylindrical dominance: +50 above ratio 0.5, +30 above 0.2, or +25 when
//     more than 3 cylindrical faces exist despite a low ratio (small parts
//     with many fine cylindrical details, e.g. bottles)
//   - circular edges: +2 each, capped at +30
//   - complex surfaces (bezier + b-spline): -1.5 each, capped at -20
//   - rotational geometry: +15 when 3 or fewer planar faces
//   - base offset: +35
//
// The raw total is clamped to [0,100] and rounded half-up.
func Score(summary *geometry.FeatureSummary) (MachinabilityScore, error) {
	if err := summary.Validate(); err != nil {
		return MachinabilityScore{}, err
	}

	var (
		total     float64
		rationale []string
	)

	add := func(points float64, reason string) {
		total += points
		rationale = append(rationale, fmt.Sprintf("%+.1f: %s", points, reason))
	}

	cylinders := summary.SurfaceCount(geometry.SurfaceCylinder)
	ratio := summary.CylindricalRatio()
	switch {
	case ratio > 0.5:
		add(50, "high percentage of cylindrical surfaces suggests rotational symmetry")
	case ratio > 0.2:
		add(30, "moderate percentage of cylindrical surfaces (suitable for turning)")
	case cylinders > 3:
		add(25, fmt.Sprintf("%d cylindrical surfaces detected - rotational part", cylinders))
	}

	if circles := summary.EdgeCount(geometry.EdgeCircle); circles > 0 {
		credit := math.Min(30, float64(circles)*2)
		add(credit, fmt.Sprintf("%d circular edges detected (typical of rotational parts)", circles))
	}

	if complex := summary.ComplexSurfaces(); complex > 0 {
		penalty := math.Min(20, float64(complex)*1.5)
		add(-penalty, fmt.Sprintf("%d complex surfaces (turning difficulty)", complex))
	}

	if planes := summary.SurfaceCount(geometry.SurfacePlane); planes <= 3 {
		add(15, "few planar faces - rotational geometry")
	}

	add(35, "base turning viability offset")

	value := int(math.Floor(math.Min(100, math.Max(0, total)) + 0.5))

	return MachinabilityScore{
		Value:     value,
		Suitable:  value >= SuitabilityThreshold,
		Rationale: rationale,
	}, nil
}
