// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package planner turns a scored feature summary into an ordered lathe
// process plan: operations with computed cutting parameters, the deduplicated
// tool list, and a total time estimate.
//
// Operations are evaluated in a fixed canonical order, each behind a gate
// predicate over the part geometry. Operation IDs are the canonical position
// (1..7) even when earlier steps are skipped; a gap in the ID sequence means
// the canonical step was not needed, not that something went wrong.
package planner

import (
	"fmt"
	"math"

	"github.com/laveshps/turncapp/internal/geometry"
	"github.com/laveshps/turncapp/internal/scoring"
)

// =============================================================================
// OPERATION TYPES
// =============================================================================

// OperationKind identifies one canonical turning operation.
type OperationKind string

const (
	OpFace       OperationKind = "facing"
	OpRoughTurn  OperationKind = "rough_turning"
	OpFinishTurn OperationKind = "finish_turning"
	OpBore       OperationKind = "boring"
	OpThread     OperationKind = "threading"
	OpGroove     OperationKind = "grooving"
	OpPartOff    OperationKind = "parting"
)

// Coolant is the coolant strategy for an operation.
type Coolant string

const (
	CoolantFlood Coolant = "flood"
	CoolantLight Coolant = "light"
	CoolantDry   Coolant = "dry"
)

// Operation is one planned machining step with computed cutting parameters.
type Operation struct {
	// ID is the canonical sequence position (1-based), stable across skips.
	ID          int           `json:"operation_id"`
	Kind        OperationKind `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Tool        Tool          `json:"-"`
	ToolName    string        `json:"tool"`

	SpindleSpeedRPM  int     `json:"spindle_speed"`
	FeedRateMMPerRev float64 `json:"feed_rate"`
	DepthOfCutMM     float64 `json:"depth_of_cut"`
	Coolant          Coolant `json:"coolant"`
	EstimatedMinutes float64 `json:"estimated_time"`
}

// OperationPlan is the immutable result of planning one part. A new analysis
// produces a wholly new plan.
type OperationPlan struct {
	Operations []Operation `json:"operations"`

	// ToolsRequired is deduplicated by designation code, ordered by first use.
	ToolsRequired []Tool `json:"tools"`

	TotalMinutes float64 `json:"total_minutes"`

	Material MaterialProfile `json:"-"`
	Machine  MachineProfile  `json:"-"`
}

// NotMachinableError is the typed "no plan" outcome for parts below the
// suitability threshold. It is not a fault; callers branch on it.
type NotMachinableError struct {
	Score int
}

func (e *NotMachinableError) Error() string {
	return fmt.Sprintf("part not suitable for turning (score %d/100, threshold %d)",
		e.Score, scoring.SuitabilityThreshold)
}

// =============================================================================
// CUTTING PARAMETER TABLES
// =============================================================================

const (
	minRPM = 100
	maxRPM = 5000

	// toolChangeMinutes is added to every operation after the first.
	toolChangeMinutes = 0.5

	// timeCorrection inflates the ideal cutting time for approach, retract
	// and spring passes. The whole estimate carries a roughly +/-30% error
	// band; anything presenting it to a user must say so.
	timeCorrection = 1.2

	// partOffDepthCapMM bounds the parting depth of cut regardless of stock
	// diameter. Deeper engagement snaps the blade on small stock.
	partOffDepthCapMM = 12.0
)

// opSpec is one row of the canonical operation table.
type opSpec struct {
	id           int
	kind         OperationKind
	name         string
	description  string
	surfaceSpeed float64 // m/min, reference steel
	feed         float64 // mm/rev
	coolant      Coolant
	// gate reports whether this operation applies to the part.
	gate func(s *geometry.FeatureSummary) bool
	// depth returns the depth of cut in mm for the part.
	depth func(s *geometry.FeatureSummary) float64
	// multiPass selects the radial pass count formula over single-pass.
	multiPass bool
	// halfSpeed halves the computed RPM before clamping (threading).
	halfSpeed bool
}

func always(*geometry.FeatureSummary) bool { return true }

func fixedDepth(mm float64) func(*geometry.FeatureSummary) float64 {
	return func(*geometry.FeatureSummary) float64 { return mm }
}

// canonicalOps is the fixed operation order. IDs here are the contract:
// skipped operations leave gaps, never renumbering.
var canonicalOps = []opSpec{
	{
		id: 1, kind: OpFace, name: "Face & Center",
		description:  "Face the part and create center marks for alignment",
		surfaceSpeed: 250, feed: 0.15, coolant: CoolantFlood,
		gate: always, depth: fixedDepth(1.0),
	},
	{
		id: 2, kind: OpRoughTurn, name: "Rough Turning",
		description:  "Remove material from outer diameter",
		surfaceSpeed: 200, feed: 0.20, coolant: CoolantFlood,
		gate:  func(s *geometry.FeatureSummary) bool { return s.Diameter() > 20 },
		depth: fixedDepth(2.0), multiPass: true,
	},
	{
		id: 3, kind: OpFinishTurn, name: "Finish Turning",
		description:  "Achieve final diameter and surface finish",
		surfaceSpeed: 300, feed: 0.10, coolant: CoolantFlood,
		gate: always, depth: fixedDepth(0.5), multiPass: true,
	},
	{
		id: 4, kind: OpBore, name: "Boring",
		description:  "Machine internal cylindrical features",
		surfaceSpeed: 180, feed: 0.12, coolant: CoolantFlood,
		gate: func(s *geometry.FeatureSummary) bool {
			return s.SurfaceCount(geometry.SurfaceCylinder) > 2
		},
		depth: fixedDepth(1.0), multiPass: true,
	},
	{
		id: 5, kind: OpThread, name: "Threading",
		description:  "Cut external threads",
		surfaceSpeed: 100, feed: 0.50, coolant: CoolantLight,
		gate: func(s *geometry.FeatureSummary) bool {
			return s.Length() > 1.5*s.Diameter()
		},
		depth: fixedDepth(0.5), halfSpeed: true,
	},
	{
		id: 6, kind: OpGroove, name: "Grooving",
		description:  "Cut grooves for stress relief",
		surfaceSpeed: 150, feed: 0.15, coolant: CoolantFlood,
		gate: always, depth: fixedDepth(0.8),
	},
	{
		id: 7, kind: OpPartOff, name: "Parting Off",
		description:  "Separate finished part from stock",
		surfaceSpeed: 120, feed: 0.08, coolant: CoolantLight,
		gate: always,
		depth: func(s *geometry.FeatureSummary) float64 {
			return math.Min(s.Diameter()*0.4, partOffDepthCapMM)
		},
	},
}

// =============================================================================
// PLANNER
// =============================================================================

// Planner generates operation plans under a material and machine profile.
// The zero value is not usable; use New.
type Planner struct {
	material MaterialProfile
	machine  MachineProfile
}

// New returns a planner for the reference material on a generic lathe.
func New() *Planner {
	return NewWithProfiles(MaterialReferenceSteel, MachineGeneric)
}

// NewWithProfiles returns a planner for a specific material and machine.
func NewWithProfiles(material MaterialProfile, machine MachineProfile) *Planner {
	if material.SpeedFactor <= 0 {
		material = MaterialReferenceSteel
	}
	if machine.RPMLimit <= 0 {
		machine = MachineGeneric
	}
	return &Planner{material: material, machine: machine}
}

// Plan builds the operation plan for a scored part. It fails fast with
// NotMachinableError when the score is below threshold; no partial plan is
// ever returned for an unsuitable part.
func (p *Planner) Plan(summary *geometry.FeatureSummary, score scoring.MachinabilityScore) (*OperationPlan, error) {
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	if !score.Suitable {
		return nil, &NotMachinableError{Score: score.Value}
	}

	diameter := summary.Diameter()
	length := summary.Length()

	var ops []Operation
	for _, spec := range canonicalOps {
		if !spec.gate(summary) {
			continue
		}

		rpm := p.spindleSpeed(spec, diameter)
		depth := spec.depth(summary)
		passes := 1
		if spec.multiPass {
			passes = radialPasses(diameter, depth)
		}

		minutes := cuttingMinutes(length, rpm, spec.feed, passes)
		if len(ops) > 0 {
			minutes += toolChangeMinutes
		}

		tool := toolCatalog[spec.kind]
		ops = append(ops, Operation{
			ID:               spec.id,
			Kind:             spec.kind,
			Name:             spec.name,
			Description:      spec.description,
			Tool:             tool,
			ToolName:         tool.Name + " (" + tool.Designation + ")",
			SpindleSpeedRPM:  rpm,
			FeedRateMMPerRev: spec.feed,
			DepthOfCutMM:     depth,
			Coolant:          spec.coolant,
			EstimatedMinutes: roundMinutes(minutes),
		})
	}

	plan := &OperationPlan{
		Operations: ops,
		Material:   p.material,
		Machine:    p.machine,
	}
	for _, op := range ops {
		plan.TotalMinutes += op.EstimatedMinutes
	}
	plan.TotalMinutes = roundMinutes(plan.TotalMinutes)
	plan.ToolsRequired = dedupeTools(ops)

	return plan, nil
}

// spindleSpeed computes the clamped RPM for one operation:
// rpm = 1000 * V / (pi * D), scaled by the material factor, halved for
// threading, then clamped to [100, min(5000, machine limit)].
func (p *Planner) spindleSpeed(spec opSpec, diameterMM float64) int {
	speed := spec.surfaceSpeed * p.material.SpeedFactor
	rpm := int(math.Round(1000 * speed / (math.Pi * diameterMM)))
	if spec.halfSpeed {
		rpm /= 2
	}

	upper := maxRPM
	if p.machine.RPMLimit < upper {
		upper = p.machine.RPMLimit
	}
	if rpm > upper {
		rpm = upper
	}
	if rpm < minRPM {
		rpm = minRPM
	}
	return rpm
}

// radialPasses is the pass count for stock-removal operations: one pass per
// depth-of-cut increment over the part radius, minimum one.
func radialPasses(diameterMM, depthMM float64) int {
	if depthMM <= 0 {
		return 1
	}
	passes := int(math.Ceil((diameterMM / 2) / depthMM))
	if passes < 1 {
		passes = 1
	}
	return passes
}

// cuttingMinutes estimates cutting time: feed (mm/rev) times RPM gives the
// traverse rate in mm/min; one length traversal per pass.
func cuttingMinutes(lengthMM float64, rpm int, feed float64, passes int) float64 {
	if rpm <= 0 || feed <= 0 {
		return 0
	}
	perPass := lengthMM / (float64(rpm) * feed)
	return float64(passes) * perPass * timeCorrection
}

func roundMinutes(m float64) float64 {
	return math.Round(m*10) / 10
}

// dedupeTools projects the first-use-ordered, designation-unique tool list.
func dedupeTools(ops []Operation) []Tool {
	seen := make(map[string]bool)
	var tools []Tool
	for _, op := range ops {
		if seen[op.Tool.Designation] {
			continue
		}
		seen[op.Tool.Designation] = true
		tools = append(tools, op.Tool)
	}
	return tools
}
