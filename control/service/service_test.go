package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/OpenDive/suibotics-core-sub002/control/event"
	"github.com/OpenDive/suibotics-core-sub002/control/session"
	"github.com/OpenDive/suibotics-core-sub002/control/store"
)

// fakeClock is an adjustable clock for pinning time-dependent behavior.
type fakeClock struct {
	mu     sync.Mutex
	millis int64
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.UnixMilli(c.millis)
}

func (c *fakeClock) set(millis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.millis = millis
}

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

func (p *capturePublisher) countByType(t event.Type) int {
	n := 0
	for _, evt := range p.snapshot() {
		if evt.Type == t {
			n++
		}
	}
	return n
}

// newTestService wires a service over an in-memory store with a fixed clock
// starting at t=0 and deterministic session IDs.
func newTestService(t *testing.T) (ControlService, *fakeClock, *capturePublisher) {
	t.Helper()
	clock := &fakeClock{}
	pub := &capturePublisher{}
	svc := NewControlService(
		store.NewMemory(pub),
		pub,
		nil,
		nil,
		WithClock(clock.now),
		WithIDGenerator(func() string { return "sess-1" }),
	)
	return svc, clock, pub
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	info, err := svc.CreateSession(ctx, "creator-1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if info.ID != "sess-1" || info.Creator != "creator-1" {
		t.Errorf("Unexpected identity: %+v", info)
	}
	if info.Status != "WAITING" {
		t.Errorf("Expected WAITING, got %s", info.Status)
	}
	if info.CreatedAt != 0 || info.EndTime != session.DurationMillis {
		t.Errorf("Expected window [0, %d), got [%d, %d)", session.DurationMillis, info.CreatedAt, info.EndTime)
	}
	if info.TotalMoves != 0 || info.ParticipantCount != 0 {
		t.Errorf("Expected empty session, got %+v", info)
	}
	if info.TimeRemaining != session.DurationMillis || info.HasExpired {
		t.Errorf("Expected full window remaining, got %+v", info)
	}

	events := pub.snapshot()
	if len(events) != 1 || events[0].Type != event.TypeSessionCreated {
		t.Fatalf("Expected one session.created event, got %v", events)
	}
	if events[0].Created.SessionID != "sess-1" || events[0].Created.EndTime != session.DurationMillis {
		t.Errorf("Unexpected created payload: %+v", events[0].Created)
	}
}

func TestCreateSessionRequiresCreator(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.CreateSession(context.Background(), "  "); err == nil {
		t.Error("Expected error for blank creator")
	}
}

func TestSubmitMoveAccepted(t *testing.T) {
	ctx := context.Background()
	svc, clock, pub := newTestService(t)

	if _, err := svc.CreateSession(ctx, "creator-1"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	clock.set(100)
	result, err := svc.SubmitMove(ctx, "sess-1", "alice", session.DirectionUp)
	if err != nil {
		t.Fatalf("SubmitMove failed: %v", err)
	}

	if !result.Accepted || result.Terminated {
		t.Errorf("Expected accepted move, got %+v", result)
	}
	if result.Seq != 1 || !result.NewParticipant {
		t.Errorf("Expected seq 1 from new participant, got %+v", result)
	}
	if result.Session.Status != "ACTIVE" {
		t.Errorf("Expected first move to activate, got %s", result.Session.Status)
	}

	if got := pub.countByType(event.TypeMoveAccepted); got != 1 {
		t.Fatalf("Expected one move.accepted event, got %d", got)
	}
	for _, evt := range pub.snapshot() {
		if evt.Type != event.TypeMoveAccepted {
			continue
		}
		if evt.Move.Principal != "alice" || evt.Move.DirectionName != "up" || evt.Move.SubmittedAt != 100 {
			t.Errorf("Unexpected move payload: %+v", evt.Move)
		}
	}
}

func TestSubmitMoveInvalidDirection(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	if _, err := svc.CreateSession(ctx, "creator-1"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	_, err := svc.SubmitMove(ctx, "sess-1", "alice", session.Direction(8))
	if !errors.Is(err, session.ErrInvalidDirection) {
		t.Fatalf("Expected ErrInvalidDirection, got %v", err)
	}

	info, _ := svc.GetSession(ctx, "sess-1")
	if info.TotalMoves != 0 || info.Status != "WAITING" {
		t.Errorf("Expected rejected move to leave session untouched, got %+v", info)
	}
	if got := pub.countByType(event.TypeMoveAccepted); got != 0 {
		t.Errorf("Expected no move events, got %d", got)
	}
}

func TestSubmitMoveUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SubmitMove(context.Background(), "missing", "alice", session.DirectionUp)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSubmitMoveRequiresPrincipal(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.SubmitMove(context.Background(), "sess-1", "", session.DirectionUp); err == nil {
		t.Error("Expected error for blank principal")
	}
}

func TestSubmitMoveAfterDeadlineTerminates(t *testing.T) {
	ctx := context.Background()
	svc, clock, pub := newTestService(t)

	if _, err := svc.CreateSession(ctx, "creator-1"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	clock.set(100)
	if _, err := svc.SubmitMove(ctx, "sess-1", "alice", session.DirectionUp); err != nil {
		t.Fatalf("SubmitMove failed: %v", err)
	}

	clock.set(130_000)
	result, err := svc.SubmitMove(ctx, "sess-1", "bob", session.DirectionLeft)
	if err != nil {
		t.Fatalf("SubmitMove at expiry failed: %v", err)
	}

	if result.Accepted || !result.Terminated {
		t.Errorf("Expected termination, got %+v", result)
	}
	if result.Session.Status != "ENDED" {
		t.Errorf("Expected ENDED, got %s", result.Session.Status)
	}
	if result.Session.TotalMoves != 1 {
		t.Errorf("Expected dropped command not to count, got %d moves", result.Session.TotalMoves)
	}
	if result.Session.ParticipantCount != 1 {
		t.Errorf("Expected bob not recorded, got %v", result.Session.Participants)
	}

	if got := pub.countByType(event.TypeSessionEnded); got != 1 {
		t.Fatalf("Expected one session.ended event, got %d", got)
	}
	for _, evt := range pub.snapshot() {
		if evt.Type != event.TypeSessionEnded {
			continue
		}
		if evt.Ended.EndedAt != 130_000 || evt.Ended.TotalMoves != 1 {
			t.Errorf("Unexpected ended payload: %+v", evt.Ended)
		}
	}

	// A later submission hits the closed session, not the expiry path.
	_, err = svc.SubmitMove(ctx, "sess-1", "carol", session.DirectionDown)
	if !errors.Is(err, session.ErrSessionEnded) {
		t.Errorf("Expected ErrSessionEnded, got %v", err)
	}
	if got := pub.countByType(event.TypeSessionEnded); got != 1 {
		t.Errorf("Expected session.ended to stay at one, got %d", got)
	}
}

func TestEndSessionBeforeDeadline(t *testing.T) {
	ctx := context.Background()
	svc, clock, _ := newTestService(t)

	if _, err := svc.CreateSession(ctx, "creator-1"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	clock.set(session.DurationMillis - 1)
	_, err := svc.EndSession(ctx, "sess-1")
	if !errors.Is(err, session.ErrNotYetExpired) {
		t.Errorf("Expected ErrNotYetExpired, got %v", err)
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, clock, pub := newTestService(t)

	if _, err := svc.CreateSession(ctx, "creator-1"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	clock.set(session.DurationMillis)
	result, err := svc.EndSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if result.AlreadyEnded {
		t.Error("Expected first end not to report AlreadyEnded")
	}
	if result.Session.Status != "ENDED" {
		t.Errorf("Expected ENDED, got %s", result.Session.Status)
	}

	again, err := svc.EndSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Second EndSession failed: %v", err)
	}
	if !again.AlreadyEnded {
		t.Error("Expected second end to report AlreadyEnded")
	}

	if got := pub.countByType(event.TypeSessionEnded); got != 1 {
		t.Errorf("Expected exactly one session.ended event, got %d", got)
	}
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{}
	ids := []string{"sess-a", "sess-b"}
	next := 0
	svc := NewControlService(
		store.NewMemory(nil),
		nil,
		nil,
		nil,
		WithClock(clock.now),
		WithIDGenerator(func() string {
			id := ids[next]
			next++
			return id
		}),
	)

	for range ids {
		if _, err := svc.CreateSession(ctx, "creator-1"); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(sessions))
	}
}

// TestSessionLifecycleThroughService walks the canonical timeline: create at
// t=0, two moves inside the window, one late command that closes the session.
func TestSessionLifecycleThroughService(t *testing.T) {
	ctx := context.Background()
	svc, clock, _ := newTestService(t)

	info, err := svc.CreateSession(ctx, "creator-1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.EndTime != 120_000 {
		t.Fatalf("Expected deadline 120000, got %d", info.EndTime)
	}

	clock.set(100)
	first, err := svc.SubmitMove(ctx, "sess-1", "device-a", session.DirectionUpRight)
	if err != nil || first.Seq != 1 {
		t.Fatalf("First move: result %+v, err %v", first, err)
	}

	clock.set(200)
	second, err := svc.SubmitMove(ctx, "sess-1", "device-b", session.DirectionDown)
	if err != nil || second.Seq != 2 {
		t.Fatalf("Second move: result %+v, err %v", second, err)
	}

	clock.set(130_000)
	late, err := svc.SubmitMove(ctx, "sess-1", "device-a", session.DirectionLeft)
	if err != nil {
		t.Fatalf("Late move failed: %v", err)
	}
	if !late.Terminated {
		t.Fatal("Expected late move to close the session")
	}

	final, err := svc.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if final.Status != "ENDED" || final.TotalMoves != 2 || final.ParticipantCount != 2 {
		t.Errorf("Unexpected final record: %+v", final)
	}
	if final.TimeRemaining != 0 || !final.HasExpired {
		t.Errorf("Expected expired snapshot, got %+v", final)
	}
}
