// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/laveshps/turncapp/internal/capp"
)

// reportWidth is the rule width of the operator report.
const reportWidth = 80

// =============================================================================
// TEXT REPORT
// =============================================================================

// Report renders a completed analysis as a plain-text process plan for the
// shop floor.
func Report(result *capp.Result) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	heavyRule := strings.Repeat("=", reportWidth)
	lightRule := strings.Repeat("-", reportWidth)

	b.WriteString(heavyRule + "\n")
	b.WriteString(centerLine("TURNING PROCESS PLAN (CAPP SYSTEM)") + "\n")
	b.WriteString(heavyRule + "\n\n")

	b.WriteString("PART INFORMATION:\n")
	fmt.Fprintf(&b, "  File: %s\n", orUnknown(result.Summary.SourceFile))
	fmt.Fprintf(&b, "  Analysis Date: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	if result.Plan != nil {
		fmt.Fprintf(&b, "  Material Profile: %s\n", result.Plan.Material.Name)
		fmt.Fprintf(&b, "  Machine Profile: %s\n", result.Plan.Machine.Name)
	}
	b.WriteString("\n")

	b.WriteString("TURNING MACHINABILITY:\n")
	fmt.Fprintf(&b, "  Score: %d/100\n", result.Score.Value)
	fmt.Fprintf(&b, "  Suitable for Turning: %s\n\n", yesNo(result.Score.Suitable))

	if result.Plan == nil || !result.Score.Suitable {
		b.WriteString("This part is not well suited for lathe turning.\n")
		b.WriteString("Consider 3-axis milling or 3D printing instead.\n\n")
		b.WriteString(heavyRule + "\n")
		b.WriteString(centerLine("End of Process Plan") + "\n")
		b.WriteString(heavyRule + "\n")
		return b.String()
	}

	b.WriteString("PART DIMENSIONS:\n")
	fmt.Fprintf(&b, "  Diameter: %.2f mm\n", result.Summary.Diameter())
	fmt.Fprintf(&b, "  Length: %.2f mm\n", result.Summary.Length())
	fmt.Fprintf(&b, "  Volume: %.2f mm^3\n\n", result.Summary.Extents.Volume)

	b.WriteString("TURNING OPERATIONS SEQUENCE:\n")
	b.WriteString(lightRule + "\n")
	for _, op := range result.Plan.Operations {
		fmt.Fprintf(&b, "\nOperation %d: %s\n", op.ID, op.Name)
		fmt.Fprintf(&b, "  Type: %s\n", op.Kind)
		fmt.Fprintf(&b, "  Description: %s\n", op.Description)
		fmt.Fprintf(&b, "  Tool: %s\n", op.ToolName)
		p.Fprintf(&b, "  Spindle Speed: %d RPM\n", op.SpindleSpeedRPM)
		fmt.Fprintf(&b, "  Feed Rate: %g mm/rev\n", op.FeedRateMMPerRev)
		fmt.Fprintf(&b, "  Depth of Cut: %g mm\n", op.DepthOfCutMM)
		fmt.Fprintf(&b, "  Coolant: %s\n", op.Coolant)
		fmt.Fprintf(&b, "  Estimated Time: %g minutes\n", op.EstimatedMinutes)
	}

	b.WriteString("\n" + lightRule + "\n")
	fmt.Fprintf(&b, "TOTAL ESTIMATED MACHINING TIME: %.1f minutes (%.1f hours)\n",
		result.Plan.TotalMinutes, result.Plan.TotalMinutes/60)
	// Estimates come from an idealized cutting model.
	b.WriteString("NOTE: time estimates carry a +/-30% real-world margin.\n\n")

	b.WriteString("REQUIRED TURNING TOOLS:\n")
	b.WriteString(lightRule + "\n")
	for i, tool := range result.Plan.ToolsRequired {
		fmt.Fprintf(&b, "\n%d. %s (%s)\n", i+1, tool.Name, tool.Designation)
		fmt.Fprintf(&b, "   Material: %s with %s coating\n", tool.Material, tool.Coating)
		fmt.Fprintf(&b, "   Purpose: %s\n", tool.Purpose)
	}

	b.WriteString("\n" + lightRule + "\n")

	if result.Advisory != "" {
		b.WriteString("\nAI OPTIMIZATION RECOMMENDATIONS:\n")
		b.WriteString(lightRule + "\n")
		b.WriteString(result.Advisory + "\n\n")
	}

	b.WriteString("SETUP NOTES:\n")
	b.WriteString(lightRule + "\n")
	b.WriteString("  1. Mount part securely in chuck or collet\n")
	b.WriteString("  2. Run spindle at low speed before full engagement\n")
	b.WriteString("  3. Use appropriate coolant for cutting conditions\n")
	b.WriteString("  4. Check tool alignment before each operation\n")
	b.WriteString("  5. Monitor surface finish and adjust feeds/speeds as needed\n")
	b.WriteString("  6. Ensure adequate clearance for each tool and holder\n\n")

	b.WriteString(heavyRule + "\n")
	b.WriteString(centerLine("End of Process Plan") + "\n")
	b.WriteString(heavyRule + "\n")

	return b.String()
}

// centerLine pads a title to the report width, measuring display cells so
// wide runes in file names don't skew the layout.
func centerLine(s string) string {
	width := runewidth.StringWidth(s)
	if width >= reportWidth {
		return s
	}
	return strings.Repeat(" ", (reportWidth-width)/2) + s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
