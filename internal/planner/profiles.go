// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package planner

import "fmt"

// =============================================================================
// MATERIAL PROFILES
// =============================================================================

// MaterialProfile scales the reference surface speeds for a workpiece
// material. The reference tables assume mild steel (factor 1.0).
type MaterialProfile struct {
	Name        string
	SpeedFactor float64
}

var (
	MaterialReferenceSteel = MaterialProfile{Name: "Mild Steel (AISI 1018/1020)", SpeedFactor: 1.0}
	MaterialAluminum6061   = MaterialProfile{Name: "Aluminum 6061-T6", SpeedFactor: 1.7}
	MaterialStainless304   = MaterialProfile{Name: "Stainless Steel 304", SpeedFactor: 0.65}
)

var materialProfiles = map[string]MaterialProfile{
	MaterialReferenceSteel.Name: MaterialReferenceSteel,
	MaterialAluminum6061.Name:   MaterialAluminum6061,
	MaterialStainless304.Name:   MaterialStainless304,
}

// MaterialByName looks up a material profile by its display name.
func MaterialByName(name string) (MaterialProfile, error) {
	if p, ok := materialProfiles[name]; ok {
		return p, nil
	}
	return MaterialProfile{}, fmt.Errorf("unknown material profile %q", name)
}

// =============================================================================
// MACHINE PROFILES
// =============================================================================

// MachineProfile caps the spindle speed for a lathe class. The cap is applied
// together with the global [100, 5000] RPM clamp, whichever is lower.
type MachineProfile struct {
	Name     string
	RPMLimit int
}

var (
	// MachineGeneric imposes no cap beyond the global clamp.
	MachineGeneric = MachineProfile{Name: "Generic CNC lathe", RPMLimit: maxRPM}
	MachineST20    = MachineProfile{Name: "2-axis CNC turning center (ST-20 class)", RPMLimit: 4000}
	MachineTL1     = MachineProfile{Name: "Toolroom CNC lathe (TL-1 class)", RPMLimit: 1800}
	MachineST10    = MachineProfile{Name: "High-speed CNC turning center (ST-10 class)", RPMLimit: 6000}
)

var machineProfiles = map[string]MachineProfile{
	MachineGeneric.Name: MachineGeneric,
	MachineST20.Name:    MachineST20,
	MachineTL1.Name:     MachineTL1,
	MachineST10.Name:    MachineST10,
}

// MachineByName looks up a machine profile by its display name.
func MachineByName(name string) (MachineProfile, error) {
	if p, ok := machineProfiles[name]; ok {
		return p, nil
	}
	return MachineProfile{}, fmt.Errorf("unknown machine profile %q", name)
}
