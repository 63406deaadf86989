// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/laveshps/turncapp/internal/capp"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a process plan as Markdown for sharing outside
// the shop floor (wikis, pull requests, email).
type MarkdownExporter struct{}

// Render converts a completed analysis to Markdown.
func (e *MarkdownExporter) Render(result *capp.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("analysis is nil")
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Turning Process Plan: %s\n\n",
		escapeMarkdown(orUnknown(result.Summary.SourceFile))))

	sb.WriteString("## Part Information\n\n")
	sb.WriteString(fmt.Sprintf("- **File**: %s\n", orUnknown(result.Summary.SourceFile)))
	sb.WriteString(fmt.Sprintf("- **Analysis Date**: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("- **Machinability Score**: %d/100\n", result.Score.Value))
	sb.WriteString(fmt.Sprintf("- **Suitable for Turning**: %s\n", yesNo(result.Score.Suitable)))
	sb.WriteString(fmt.Sprintf("- **Diameter**: %.2f mm\n", result.Summary.Diameter()))
	sb.WriteString(fmt.Sprintf("- **Length**: %.2f mm\n", result.Summary.Length()))

	if result.Plan == nil || !result.Score.Suitable {
		sb.WriteString("\nThis part is not well suited for lathe turning. ")
		sb.WriteString("Consider 3-axis milling or 3D printing instead.\n")
		return []byte(sb.String()), nil
	}

	sb.WriteString(fmt.Sprintf("- **Material Profile**: %s\n", result.Plan.Material.Name))
	sb.WriteString(fmt.Sprintf("- **Machine Profile**: %s\n\n", result.Plan.Machine.Name))

	sb.WriteString("## Operations\n\n")
	sb.WriteString("| # | Operation | Tool | RPM | Feed (mm/rev) | DOC (mm) | Time (min) |\n")
	sb.WriteString("|---|-----------|------|-----|---------------|----------|------------|\n")
	for _, op := range result.Plan.Operations {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %g | %g | %g |\n",
			op.ID, op.Name, op.ToolName, op.SpindleSpeedRPM,
			op.FeedRateMMPerRev, op.DepthOfCutMM, op.EstimatedMinutes))
	}
	sb.WriteString(fmt.Sprintf("\n**Total estimated machining time**: %.1f minutes (%.1f hours). ",
		result.Plan.TotalMinutes, result.Plan.TotalMinutes/60))
	sb.WriteString("Estimates carry a +/-30% real-world margin.\n\n")

	sb.WriteString("## Required Tools\n\n")
	for i, tool := range result.Plan.ToolsRequired {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s) - %s, %s coating. %s\n",
			i+1, tool.Name, tool.Designation, tool.Material, tool.Coating, tool.Purpose))
	}

	if result.Advisory != "" {
		sb.WriteString("\n## AI Optimization Recommendations\n\n")
		sb.WriteString(strings.TrimSpace(result.Advisory))
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
