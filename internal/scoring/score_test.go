// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package scoring

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/laveshps/turncapp/internal/geometry"
)

func summaryOf(surfaces map[geometry.SurfaceKind]int, edges map[geometry.EdgeKind]int) *geometry.FeatureSummary {
	return &geometry.FeatureSummary{
		Surfaces: surfaces,
		Edges:    edges,
		Extents:  geometry.Extents{X: 40, Y: 40, Z: 90},
	}
}

func TestShaftScoresHigh(t *testing.T) {
	s := summaryOf(
		map[geometry.SurfaceKind]int{geometry.SurfaceCylinder: 10, geometry.SurfacePlane: 2},
		map[geometry.EdgeKind]int{geometry.EdgeCircle: 20},
	)

	score, err := Score(s)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// +50 dominance, +30 edge cap, +15 rotational, +35 base -> clamped 100.
	if score.Value != 100 {
		t.Errorf("Value = %d, want 100", score.Value)
	}
	if !score.Suitable {
		t.Error("expected Suitable")
	}
}

func TestPrismaticPartBelowThreshold(t *testing.T) {
	// A plain box: six planes, no rotational features.
	s := summaryOf(map[geometry.SurfaceKind]int{geometry.SurfacePlane: 6}, nil)

	score, err := Score(s)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score.Value != 35 {
		t.Errorf("Value = %d, want 35 (base offset only)", score.Value)
	}
	if score.Suitable {
		t.Error("a box should not be suitable for turning")
	}
}

func TestModerateCylindricalRatio(t *testing.T) {
	// Ratio 0.3: moderate band, +30 not +50.
	s := summaryOf(map[geometry.SurfaceKind]int{
		geometry.SurfaceCylinder: 3,
		geometry.SurfacePlane:    7,
	}, nil)

	score, err := Score(s)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// +30 moderate, +35 base; 7 planes drops the rotational credit.
	if score.Value != 65 {
		t.Errorf("Value = %d, want 65", score.Value)
	}
}

func TestManyCylindersDespiteLowRatio(t *testing.T) {
	// A bottle-like part: fine cylindrical details swamped by other faces.
	s := summaryOf(map[geometry.SurfaceKind]int{
		geometry.SurfaceCylinder: 5,
		geometry.SurfacePlane:    40,
	}, nil)

	score, err := Score(s)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// Ratio 5/45 is below 0.2 but >3 cylinders earns +25; +35 base.
	if score.Value != 60 {
		t.Errorf("Value = %d, want 60", score.Value)
	}
}

func TestCircularEdgeCreditCapped(t *testing.T) {
	few := summaryOf(map[geometry.SurfaceKind]int{geometry.SurfacePlane: 6},
		map[geometry.EdgeKind]int{geometry.EdgeCircle: 5})
	many := summaryOf(map[geometry.SurfaceKind]int{geometry.SurfacePlane: 6},
		map[geometry.EdgeKind]int{geometry.EdgeCircle: 500})

	fewScore, err := Score(few)
	if err != nil {
		t.Fatal(err)
	}
	manyScore, err := Score(many)
	if err != nil {
		t.Fatal(err)
	}

	// 5 circles: +10. 500 circles: capped at +30.
	if fewScore.Value != 45 {
		t.Errorf("few Value = %d, want 45", fewScore.Value)
	}
	if manyScore.Value != 65 {
		t.Errorf("many Value = %d, want 65 (edge credit capped)", manyScore.Value)
	}
}

func TestComplexSurfacePenaltyCapped(t *testing.T) {
	s := summaryOf(map[geometry.SurfaceKind]int{
		geometry.SurfaceCylinder: 10,
		geometry.SurfaceBSpline:  200,
	}, nil)

	score, err := Score(s)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// Ratio below 0.2 but >3 cylinders: +25; penalty capped at -20; +15
	// rotational; +35 base.
	if score.Value != 55 {
		t.Errorf("Value = %d, want 55", score.Value)
	}
}

func TestScoreStaysInRange(t *testing.T) {
	extremes := []*geometry.FeatureSummary{
		summaryOf(map[geometry.SurfaceKind]int{geometry.SurfaceBSpline: 1000, geometry.SurfacePlane: 50}, nil),
		summaryOf(map[geometry.SurfaceKind]int{geometry.SurfaceCylinder: 1000},
			map[geometry.EdgeKind]int{geometry.EdgeCircle: 1000}),
	}
	for _, s := range extremes {
		score, err := Score(s)
		if err != nil {
			t.Fatal(err)
		}
		if score.Value < 0 || score.Value > 100 {
			t.Errorf("Value = %d, out of [0,100]", score.Value)
		}
	}

	// Random histograms over every surface and edge class must also land in
	// range, and Suitable must agree with the threshold.
	rng := rand.New(rand.NewSource(1))
	surfaceKinds := []geometry.SurfaceKind{
		geometry.SurfacePlane, geometry.SurfaceCylinder, geometry.SurfaceCone,
		geometry.SurfaceSphere, geometry.SurfaceTorus,
		geometry.SurfaceBezier, geometry.SurfaceBSpline,
	}
	edgeKinds := []geometry.EdgeKind{
		geometry.EdgeLine, geometry.EdgeCircle, geometry.EdgeOther,
	}
	for i := 0; i < 500; i++ {
		surfaces := make(map[geometry.SurfaceKind]int)
		for _, kind := range surfaceKinds {
			surfaces[kind] = rng.Intn(2000)
		}
		edges := make(map[geometry.EdgeKind]int)
		for _, kind := range edgeKinds {
			edges[kind] = rng.Intn(2000)
		}

		score, err := Score(summaryOf(surfaces, edges))
		if err != nil {
			t.Fatalf("Score(%v, %v): %v", surfaces, edges, err)
		}
		if score.Value < 0 || score.Value > 100 {
			t.Errorf("Value = %d, out of [0,100] for %v / %v", score.Value, surfaces, edges)
		}
		if score.Suitable != (score.Value >= SuitabilityThreshold) {
			t.Errorf("Suitable = %v with Value = %d", score.Suitable, score.Value)
		}
	}
}

func TestRationaleMatchesContributions(t *testing.T) {
	s := summaryOf(
		map[geometry.SurfaceKind]int{geometry.SurfaceCylinder: 10, geometry.SurfaceBezier: 2},
		map[geometry.EdgeKind]int{geometry.EdgeCircle: 4},
	)

	score, err := Score(s)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// dominance, edges, complex penalty, rotational, base: five lines.
	if len(score.Rationale) != 5 {
		t.Fatalf("Rationale lines = %d, want 5: %v", len(score.Rationale), score.Rationale)
	}
	for _, line := range score.Rationale {
		if !strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "-") {
			t.Errorf("rationale line missing signed points prefix: %q", line)
		}
	}
}

func TestSuitabilityThreshold(t *testing.T) {
	box := summaryOf(map[geometry.SurfaceKind]int{geometry.SurfacePlane: 6}, nil)
	score, err := Score(box)
	if err != nil {
		t.Fatal(err)
	}
	if score.Value >= SuitabilityThreshold {
		t.Fatalf("test needs a sub-threshold part, got %d", score.Value)
	}
	if score.Suitable {
		t.Error("Suitable must track the threshold")
	}
}

func TestFeasibilityBands(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "Low"},
		{40, "Low"},
		{41, "Medium"},
		{70, "Medium"},
		{71, "High"},
		{100, "High"},
	}
	for _, tt := range tests {
		s := MachinabilityScore{Value: tt.value}
		if got := s.Feasibility(); got != tt.want {
			t.Errorf("Feasibility(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestScoreRejectsInvalidSummary(t *testing.T) {
	s := &geometry.FeatureSummary{Extents: geometry.Extents{X: 0, Y: 10, Z: 10}}
	if _, err := Score(s); err == nil {
		t.Fatal("expected validation error for zero extent")
	}
}

func TestScoreMonotonicInCylinders(t *testing.T) {
	// Adding cylindrical surfaces, everything else fixed, never lowers
	// the score.
	prev := -1
	for cylinders := 0; cylinders <= 30; cylinders++ {
		s := summaryOf(map[geometry.SurfaceKind]int{
			geometry.SurfaceCylinder: cylinders,
			geometry.SurfacePlane:    10,
		}, nil)
		score, err := Score(s)
		if err != nil {
			t.Fatal(err)
		}
		if score.Value < prev {
			t.Fatalf("score dropped from %d to %d at %d cylinders", prev, score.Value, cylinders)
		}
		prev = score.Value
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := summaryOf(
		map[geometry.SurfaceKind]int{geometry.SurfaceCylinder: 7, geometry.SurfacePlane: 2},
		map[geometry.EdgeKind]int{geometry.EdgeCircle: 9},
	)
	first, err := Score(s)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := Score(s)
		if err != nil {
			t.Fatal(err)
		}
		if again.Value != first.Value {
			t.Fatalf("run %d: Value = %d, want %d", i, again.Value, first.Value)
		}
	}
}
