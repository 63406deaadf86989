// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders completed turning analyses for consumption outside
// the tool: a machine-readable JSON document, a plain-text operator report,
// and a Markdown variant of the same plan.
package export

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for process-plan exporters.
type Exporter interface {
	// Render converts a completed analysis to the target format.
	Render(result *capp.Result) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".json", ".txt").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// Pretty indents JSON output.
	Pretty bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
		Pretty:    true,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a completed analysis to a file using the specified
// exporter. The filename is derived from the part's source file, so
// "bracket.step" becomes "bracket_turning_plan.json". Returns the output
// file path or an error.
func ExportToFile(result *capp.Result, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if result == nil {
		return "", fmt.Errorf("no analysis to export")
	}

	content, err := exporter.Render(result)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("%s_turning_plan%s",
		sanitizeFilename(sourceStem(result.Summary.SourceFile)),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// Non-fatal - file was still created successfully
			fmt.Printf("Warning: Could not open file: %v\n", err)
		}
	}

	return outputPath, nil
}

// ExportJSON exports the structured plan document.
func ExportJSON(result *capp.Result, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	return ExportToFile(result, &JSONExporter{Pretty: opts.Pretty}, opts)
}

// ExportReport exports the plain-text operator report.
func ExportReport(result *capp.Result, opts *Options) (string, error) {
	return ExportToFile(result, &TextExporter{}, opts)
}

// ExportMarkdown exports the Markdown process plan.
func ExportMarkdown(result *capp.Result, opts *Options) (string, error) {
	return ExportToFile(result, &MarkdownExporter{}, opts)
}

// =============================================================================
// FORMAT EXPORTERS
// =============================================================================

// JSONExporter renders the structured plan document.
type JSONExporter struct {
	Pretty bool
}

func (e *JSONExporter) Render(result *capp.Result) ([]byte, error) {
	return NewDocument(result).JSON(e.Pretty)
}

func (e *JSONExporter) FileExtension() string { return ".json" }
func (e *JSONExporter) MimeType() string      { return "application/json" }

// TextExporter renders the plain-text operator report.
type TextExporter struct{}

func (e *TextExporter) Render(result *capp.Result) ([]byte, error) {
	return []byte(Report(result)), nil
}

func (e *TextExporter) FileExtension() string { return ".txt" }
func (e *TextExporter) MimeType() string      { return "text/plain" }

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sourceStem returns the base name of the analyzed file without its extension.
func sourceStem(sourceFile string) string {
	if sourceFile == "" {
		return "part"
	}
	base := filepath.Base(sourceFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	// Limit length
	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	// Replace problematic characters (Windows and Unix)
	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			// Replace control characters
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "part"
	}

	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
