// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pump moves messages from worker goroutines to the UI loop.
//
// Workers running planning or advisory calls never touch presentation state.
// They enqueue tagged messages onto a multiple-producer queue; the UI loop
// drains the queue on a fixed interval and is the only code that applies
// messages. This is the concurrency correctness boundary of the application.
package pump

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultInterval is how often the consumer drains the queue.
const DefaultInterval = 100 * time.Millisecond

// =============================================================================
// MESSAGES
// =============================================================================

// Source distinguishes conversation content from status updates.
type Source string

const (
	SourceChat   Source = "chat"
	SourceStatus Source = "status"
)

// Sender identifies who a message is displayed as coming from.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// Message is one unit handed from a worker to the UI loop. RunID tags the
// analysis run that produced it; uuid.Nil marks messages that are never
// stale (global status lines).
type Message struct {
	Source Source
	Sender Sender
	Text   string
	RunID  uuid.UUID
}

// ChatMessage builds a conversation message for a run.
func ChatMessage(runID uuid.UUID, sender Sender, text string) Message {
	return Message{Source: SourceChat, Sender: sender, Text: text, RunID: runID}
}

// StatusMessage builds a status line for a run.
func StatusMessage(runID uuid.UUID, text string) Message {
	return Message{Source: SourceStatus, Sender: SenderSystem, Text: text, RunID: runID}
}

// =============================================================================
// QUEUE
// =============================================================================

// Queue is a multiple-producer, single-consumer FIFO. Enqueue never blocks a
// producer and Drain never blocks beyond the mutex, so neither side can stall
// the other. Messages enqueued by one producer are drained in enqueue order.
type Queue struct {
	mu       sync.Mutex
	messages []Message
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a message. Safe to call from any goroutine.
func (q *Queue) Enqueue(msg Message) {
	q.mu.Lock()
	q.messages = append(q.messages, msg)
	q.mu.Unlock()
}

// Drain removes and returns all queued messages in arrival order.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.messages) == 0 {
		return nil
	}
	drained := q.messages
	q.messages = nil
	return drained
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// =============================================================================
// PUMP
// =============================================================================

// Handler applies one message to presentation state. It runs only on the
// consumer's goroutine.
type Handler func(Message)

// Pump is the single consumer of a Queue. All of its methods except the
// queue's Enqueue must be called from the same goroutine.
//
// There is no mid-flight cancellation of workers: analyzing a new part
// instead invalidates the old run's results. SetActiveRun records the live
// run and Tick silently drops messages tagged with any other run, so a slow
// advisory response for a part the user has moved on from never reaches the
// display.
type Pump struct {
	queue     *Queue
	handler   Handler
	activeRun uuid.UUID
}

// New creates a pump consuming the given queue.
func New(queue *Queue, handler Handler) *Pump {
	return &Pump{queue: queue, handler: handler}
}

// SetActiveRun marks one run's messages as live, invalidating all others.
func (p *Pump) SetActiveRun(id uuid.UUID) {
	p.activeRun = id
}

// ActiveRun returns the run whose messages are currently applied.
func (p *Pump) ActiveRun() uuid.UUID {
	return p.activeRun
}

// Tick drains the queue once, applying live messages in arrival order.
// Returns how many were applied; stale messages count toward neither.
func (p *Pump) Tick() int {
	applied := 0
	for _, msg := range p.queue.Drain() {
		if msg.RunID != uuid.Nil && msg.RunID != p.activeRun {
			continue
		}
		p.handler(msg)
		applied++
	}
	return applied
}

// Run drains the queue every interval until the context is done. A final
// drain on shutdown flushes messages enqueued just before cancellation.
func (p *Pump) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Tick()
		case <-ctx.Done():
			p.Tick()
			return
		}
	}
}
