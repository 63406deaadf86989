// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/laveshps/turncapp/internal/export"
	"github.com/laveshps/turncapp/internal/pump"
)

// tickMsg drives the message pump drain.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pump.DefaultInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tickMsg:
		if m.pump.Tick() > 0 {
			m.refreshViewport()
		}
		cmds = append(cmds, tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Send):
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}

		case key.Matches(msg, m.keyMap.PageUp):
			m.viewport.HalfViewUp()

		case key.Matches(msg, m.keyMap.PageDown):
			m.viewport.HalfViewDown()

		case key.Matches(msg, m.keyMap.Plan):
			m.showPlan()

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// submit sends the typed question to an advisory worker.
func (m *Model) submit() tea.Cmd {
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return nil
	}
	if m.state == StateBusy {
		m.statusMsg = "Still waiting on the advisory model..."
		return nil
	}

	m.input.Reset()
	m.lines = append(m.lines, line{sender: pump.SenderUser, text: question})
	m.persistTurn("user", question)
	m.refreshViewport()

	m.state = StateBusy
	m.pending++
	m.statusMsg = ""
	m.engine.AskAsync(m.queue, m.result.RunID, m.session, question)
	return m.spinner.Tick
}

// showPlan injects the operator report into the transcript.
func (m *Model) showPlan() {
	m.lines = append(m.lines, line{sender: pump.SenderSystem, text: export.Report(m.result)})
	m.refreshViewport()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3
	inputHeight := m.input.Height() + 2
	footerHeight := 1
	viewportHeight := height - headerHeight - inputHeight - footerHeight
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	if !m.ready {
		m.viewport = newViewport(width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.input.SetWidth(width - 4)

	if r, err := newRenderer(width); err == nil {
		m.renderer = r
	}
	m.refreshViewport()
}
