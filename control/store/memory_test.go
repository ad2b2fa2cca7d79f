package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/OpenDive/suibotics-core-sub002/control/event"
	"github.com/OpenDive/suibotics-core-sub002/control/session"
)

// capturePublisher records published events in order.
type capturePublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *capturePublisher) Publish(evt event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *capturePublisher) snapshot() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Event, len(p.events))
	copy(out, p.events)
	return out
}

func TestMemoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	sess := session.New("sess-1", "creator-1", 0)
	if err := m.Create(ctx, sess); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := m.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != "sess-1" || got.Creator != "creator-1" {
		t.Errorf("Unexpected record: %+v", got)
	}

	if err := m.Create(ctx, sess); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemoryGetNotFound(t *testing.T) {
	m := NewMemory(nil)

	_, err := m.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryApplyMutatesAndPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	m := NewMemory(pub)

	if err := m.Create(ctx, session.New("sess-1", "creator-1", 0)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := m.Apply(ctx, "sess-1", func(s *session.Session) ([]event.Event, error) {
		out, err := s.SubmitMove("alice", session.DirectionUp, 100)
		if err != nil {
			return nil, err
		}
		return []event.Event{event.NewMoveAccepted(event.MoveAcceptedPayload{
			SessionID: s.ID,
			Principal: "alice",
			Seq:       out.Seq,
		})}, nil
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	got, _ := m.Get(ctx, "sess-1")
	if got.TotalMoves != 1 || !got.IsActive() {
		t.Errorf("Expected mutation to persist, got %+v", got)
	}

	events := pub.snapshot()
	if len(events) != 1 || events[0].Type != event.TypeMoveAccepted {
		t.Fatalf("Expected one move.accepted event, got %v", events)
	}
	if events[0].Move.Seq != 1 {
		t.Errorf("Expected seq 1, got %d", events[0].Move.Seq)
	}
}

func TestMemoryApplyErrorLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	m := NewMemory(pub)

	if err := m.Create(ctx, session.New("sess-1", "creator-1", 0)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wantErr := errors.New("boom")
	err := m.Apply(ctx, "sess-1", func(s *session.Session) ([]event.Event, error) {
		s.TotalMoves = 99 // must not leak out
		return []event.Event{event.NewEnded(event.EndedPayload{SessionID: s.ID})}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected wrapped error, got %v", err)
	}

	got, _ := m.Get(ctx, "sess-1")
	if got.TotalMoves != 0 {
		t.Errorf("Expected failed apply not to mutate, got %d moves", got.TotalMoves)
	}
	if len(pub.snapshot()) != 0 {
		t.Error("Expected failed apply not to publish")
	}
}

func TestMemoryApplyNotFound(t *testing.T) {
	m := NewMemory(nil)

	err := m.Apply(context.Background(), "missing", func(s *session.Session) ([]event.Event, error) {
		t.Error("ApplyFunc must not run for a missing session")
		return nil, nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestMemoryConcurrentSubmits drives many goroutines against one session and
// checks the serialized outcome: gapless unique sequence numbers, correct
// participant de-duplication, and event order matching sequence order.
func TestMemoryConcurrentSubmits(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	m := NewMemory(pub)

	if err := m.Create(ctx, session.New("sess-1", "creator-1", 0)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const goroutines = 16
	const movesPerGoroutine = 25

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			principal := fmt.Sprintf("principal-%d", g%4)
			for i := 0; i < movesPerGoroutine; i++ {
				err := m.Apply(ctx, "sess-1", func(s *session.Session) ([]event.Event, error) {
					out, err := s.SubmitMove(principal, session.DirectionRight, 100)
					if err != nil {
						return nil, err
					}
					return []event.Event{event.NewMoveAccepted(event.MoveAcceptedPayload{
						SessionID: s.ID,
						Principal: principal,
						Seq:       out.Seq,
					})}, nil
				})
				if err != nil {
					t.Errorf("Apply failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	got, _ := m.Get(ctx, "sess-1")
	want := uint64(goroutines * movesPerGoroutine)
	if got.TotalMoves != want {
		t.Errorf("Expected %d moves, got %d", want, got.TotalMoves)
	}
	if got.ParticipantCount() != 4 {
		t.Errorf("Expected 4 distinct participants, got %v", got.Participants)
	}

	events := pub.snapshot()
	if len(events) != int(want) {
		t.Fatalf("Expected %d events, got %d", want, len(events))
	}

	seqs := make([]int, 0, len(events))
	for i, evt := range events {
		if evt.Move == nil {
			t.Fatalf("Event %d has no move payload", i)
		}
		// Publish happens under the session lock, so event order must match
		// assigned sequence order exactly.
		if evt.Move.Seq != uint64(i+1) {
			t.Fatalf("Event %d carries seq %d; publish order diverged from serialization order", i, evt.Move.Seq)
		}
		seqs = append(seqs, int(evt.Move.Seq))
	}
	if !sort.IntsAreSorted(seqs) {
		t.Error("Expected sequence numbers in sorted order")
	}
}

func TestMemoryListSnapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("sess-%d", i)
		if err := m.Create(ctx, session.New(id, "creator-1", 0)); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}

	sessions, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(sessions))
	}
}
