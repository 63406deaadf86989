// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pump

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// QUEUE TESTS
// =============================================================================

func TestQueue_DrainReturnsArrivalOrder(t *testing.T) {
	q := NewQueue()
	run := uuid.New()

	q.Enqueue(ChatMessage(run, SenderUser, "first"))
	q.Enqueue(ChatMessage(run, SenderAssistant, "second"))
	q.Enqueue(StatusMessage(run, "third"))

	drained := q.Drain()
	if len(drained) != 3 {
		t.Fatalf("drained = %d messages, want 3", len(drained))
	}
	for i, want := range []string{"first", "second", "third"} {
		if drained[i].Text != want {
			t.Errorf("drained[%d].Text = %q, want %q", i, drained[i].Text, want)
		}
	}

	if q.Len() != 0 {
		t.Errorf("Len after drain = %d, want 0", q.Len())
	}
	if q.Drain() != nil {
		t.Error("second drain returned messages")
	}
}

func TestQueue_PerProducerOrderUnderConcurrency(t *testing.T) {
	q := NewQueue()
	const producers = 4
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		run := uuid.New()
		go func(producer int, run uuid.UUID) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(Message{
					Source: SourceChat,
					Sender: SenderAssistant,
					Text:   fmt.Sprintf("%d:%d", producer, i),
					RunID:  run,
				})
			}
		}(p, run)
	}
	wg.Wait()

	drained := q.Drain()
	if len(drained) != producers*perProducer {
		t.Fatalf("drained = %d messages, want %d", len(drained), producers*perProducer)
	}

	// Interleaving across producers is unspecified, but each producer's
	// own messages must appear in enqueue order.
	lastSeen := make(map[string]int)
	for _, msg := range drained {
		var producer, seq int
		fmt.Sscanf(msg.Text, "%d:%d", &producer, &seq)
		key := fmt.Sprintf("%d", producer)
		if prev, ok := lastSeen[key]; ok && seq != prev+1 {
			t.Fatalf("producer %d: message %d arrived after %d", producer, seq, prev)
		} else if !ok && seq != 0 {
			t.Fatalf("producer %d: first message was %d", producer, seq)
		}
		lastSeen[key] = seq
	}
}

// =============================================================================
// PUMP TESTS
// =============================================================================

func TestPump_AppliesLiveMessages(t *testing.T) {
	q := NewQueue()
	var applied []string
	p := New(q, func(msg Message) { applied = append(applied, msg.Text) })

	run := uuid.New()
	p.SetActiveRun(run)

	q.Enqueue(ChatMessage(run, SenderUser, "hello"))
	q.Enqueue(ChatMessage(run, SenderAssistant, "hi"))

	if n := p.Tick(); n != 2 {
		t.Errorf("Tick applied %d, want 2", n)
	}
	if len(applied) != 2 || applied[0] != "hello" || applied[1] != "hi" {
		t.Errorf("applied = %v", applied)
	}
}

func TestPump_DiscardsStaleRun(t *testing.T) {
	q := NewQueue()
	var applied []string
	p := New(q, func(msg Message) { applied = append(applied, msg.Text) })

	oldRun := uuid.New()
	newRun := uuid.New()
	p.SetActiveRun(oldRun)

	// A slow worker for the old run responds after the user analyzed a
	// new part; its message must never reach the display.
	q.Enqueue(ChatMessage(oldRun, SenderAssistant, "stale answer"))
	p.SetActiveRun(newRun)
	q.Enqueue(ChatMessage(newRun, SenderAssistant, "fresh answer"))

	if n := p.Tick(); n != 1 {
		t.Errorf("Tick applied %d, want 1", n)
	}
	if len(applied) != 1 || applied[0] != "fresh answer" {
		t.Errorf("applied = %v", applied)
	}
}

func TestPump_NilRunIsNeverStale(t *testing.T) {
	q := NewQueue()
	count := 0
	p := New(q, func(Message) { count++ })
	p.SetActiveRun(uuid.New())

	q.Enqueue(Message{Source: SourceStatus, Sender: SenderSystem, Text: "service healthy"})

	if p.Tick(); count != 1 {
		t.Errorf("unscoped status message was discarded")
	}
}

func TestPump_RunDrainsUntilCancel(t *testing.T) {
	q := NewQueue()
	var mu sync.Mutex
	var applied []string
	p := New(q, func(msg Message) {
		mu.Lock()
		applied = append(applied, msg.Text)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, time.Millisecond)
		close(done)
	}()

	q.Enqueue(Message{Text: "one"})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(applied)
		mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("message never applied")
		case <-time.After(time.Millisecond):
		}
	}

	// Messages enqueued right before cancellation are flushed on shutdown.
	q.Enqueue(Message{Text: "two"})
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 2 || applied[1] != "two" {
		t.Errorf("applied = %v, want final flush to include 'two'", applied)
	}
}
