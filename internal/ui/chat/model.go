// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the interactive process-review view for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/laveshps/turncapp/internal/capp"
	"github.com/laveshps/turncapp/internal/config"
	"github.com/laveshps/turncapp/internal/pump"
	"github.com/laveshps/turncapp/internal/session"
	"github.com/laveshps/turncapp/internal/storage"
	"github.com/laveshps/turncapp/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady State = iota // Ready for input
	StateBusy               // A worker is talking to the advisory model
)

// line is one rendered transcript entry.
type line struct {
	sender pump.Sender
	text   string
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the process-review view.
type Model struct {
	// State
	state   State
	pending int // in-flight advisory workers

	// Analysis under review
	engine  *capp.Engine
	result  *capp.Result
	session *session.Session
	store   *storage.HistoryStore // nil disables transcript persistence
	log     *zap.Logger

	// Message plumbing. Workers enqueue; the tick drains.
	queue *pump.Queue
	pump  *pump.Pump

	// Transcript
	lines []line

	// UI components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// Key bindings
	keyMap KeyMap

	// Dimensions
	width  int
	height int
	ready  bool

	chatTimeout time.Duration
	statusMsg   string
	quitting    bool
}

// New creates the review model for a completed analysis. The result must
// carry a plan; unsuitable parts are rejected before the TUI starts.
func New(engine *capp.Engine, result *capp.Result, store *storage.HistoryStore, cfg *config.Config, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	queue := pump.NewQueue()

	input := textarea.New()
	input.Placeholder = "Ask about the process plan..."
	input.Prompt = "┃ "
	input.CharLimit = 2000
	input.SetHeight(2)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusWarn

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(78),
	)

	m := &Model{
		engine:      engine,
		result:      result,
		session:     engine.NewSession(result, cfg.Advisory.ChatTimeout()),
		store:       store,
		log:         log,
		queue:       queue,
		input:       input,
		spinner:     sp,
		renderer:    renderer,
		keyMap:      DefaultKeyMap(),
		chatTimeout: cfg.Advisory.ChatTimeout(),
	}

	p := pump.New(queue, m.apply)
	p.SetActiveRun(result.RunID)
	m.pump = p

	return m
}

// apply appends one drained message to the transcript.
func (m *Model) apply(msg pump.Message) {
	switch msg.Source {
	case pump.SourceStatus:
		m.statusMsg = msg.Text
		if msg.Sender == pump.SenderSystem {
			m.workerDone()
		}
	case pump.SourceChat:
		m.lines = append(m.lines, line{sender: msg.Sender, text: msg.Text})
		if msg.Sender == pump.SenderAssistant {
			m.workerDone()
			m.persistTurn("assistant", msg.Text)
		}
	}
}

func (m *Model) workerDone() {
	if m.pending > 0 {
		m.pending--
	}
	if m.pending == 0 {
		m.state = StateReady
	}
}

func (m *Model) persistTurn(role, content string) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveTurn(m.result.RunID, role, content); err != nil {
		m.log.Warn("failed to record chat turn", zap.String("role", role), zap.Error(err))
	}
}

// Init starts the spinner and the drain tick, and kicks off the one-shot
// recommendation request.
func (m *Model) Init() tea.Cmd {
	m.state = StateBusy
	m.pending++
	m.engine.RecommendAsync(m.queue, m.result)
	return tea.Batch(m.spinner.Tick, tick())
}
