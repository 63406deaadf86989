// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/laveshps/turncapp/internal/pump"
	"github.com/laveshps/turncapp/internal/ui/styles"
)

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.SetContent("")
	return vp
}

func newRenderer(width int) (*glamour.TermRenderer, error) {
	wrap := width - 2
	if wrap < 20 {
		wrap = 20
	}
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
}

// View renders the full review screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Preparing analysis view..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m *Model) headerView() string {
	title := styles.Header.Render("turncapp")
	part := m.result.Summary.SourceFile
	if part == "" {
		part = "unnamed part"
	}
	score := styles.ScoreStyle(m.result.Score.Value).
		Render(fmt.Sprintf("score %d/100", m.result.Score.Value))
	ops := styles.Hint.Render(fmt.Sprintf("%d operations, %.1f min",
		len(m.result.Plan.Operations), m.result.Plan.TotalMinutes))

	return fmt.Sprintf("%s  %s  %s  %s\n%s",
		title, part, score, ops,
		styles.Hint.Render(strings.Repeat("─", max(1, m.width))))
}

func (m *Model) footerView() string {
	if m.state == StateBusy {
		return m.spinner.View() + styles.StatusWarn.Render(" consulting advisory model...")
	}
	if m.statusMsg != "" {
		return styles.StatusBad.Render(m.statusMsg)
	}
	return styles.Hint.Render("enter send · ctrl+p plan · pgup/pgdn scroll · esc quit")
}

// refreshViewport re-renders the transcript into the viewport and follows
// the tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		switch l.sender {
		case pump.SenderUser:
			b.WriteString(styles.UserLabel.Render("You: "))
			b.WriteString(l.text)
			b.WriteString("\n")
		case pump.SenderAssistant:
			b.WriteString(styles.AssistantLabel.Render("Advisor:"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(l.text))
		default:
			b.WriteString(l.text)
			b.WriteString("\n")
		}
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// renderMarkdown renders advisory output through glamour, falling back to
// plain text when rendering fails.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
