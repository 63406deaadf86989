// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package planner

// =============================================================================
// TOOL CATALOG
// =============================================================================

// Tool is one catalog entry. Identity is the Designation code: two operations
// referencing the same designation share one physical tool.
type Tool struct {
	Name        string `json:"name"`
	Designation string `json:"type"`
	Material    string `json:"material"`
	Coating     string `json:"coating"`
	Purpose     string `json:"description"`
}

// toolCatalog is the fixed, read-only lookup from operation kind to tool.
// Rough and finish turning intentionally share one insert.
var toolCatalog = map[OperationKind]Tool{
	OpFace: {
		Name:        "Facing Insert",
		Designation: "CNMG 432 M0804",
		Material:    "Carbide",
		Coating:     "TiAlN",
		Purpose:     "For facing and end turning",
	},
	OpRoughTurn: {
		Name:        "Turning Insert",
		Designation: "VNMG 431",
		Material:    "Carbide",
		Coating:     "TiAlN",
		Purpose:     "For rough and finish turning",
	},
	OpFinishTurn: {
		Name:        "Turning Insert",
		Designation: "VNMG 431",
		Material:    "Carbide",
		Coating:     "TiAlN",
		Purpose:     "For rough and finish turning",
	},
	OpBore: {
		Name:        "Boring Insert",
		Designation: "VNMG 331",
		Material:    "Carbide",
		Coating:     "TiAlN",
		Purpose:     "For boring internal diameters",
	},
	OpThread: {
		Name:        "Threading Insert",
		Designation: "TT09T304",
		Material:    "Carbide",
		Coating:     "TiN",
		Purpose:     "For external threading",
	},
	OpGroove: {
		Name:        "Grooving Insert",
		Designation: "MGMN 300-M",
		Material:    "Carbide",
		Coating:     "TiAlN",
		Purpose:     "For grooving operations",
	},
	OpPartOff: {
		Name:        "Parting Blade",
		Designation: "MGHR-3-M",
		Material:    "Carbide",
		Coating:     "TiN",
		Purpose:     "For parting off finished parts",
	},
}

// ToolFor returns the catalog tool assigned to an operation kind.
func ToolFor(kind OperationKind) (Tool, bool) {
	tool, ok := toolCatalog[kind]
	return tool, ok
}
