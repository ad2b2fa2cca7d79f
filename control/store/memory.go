package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/OpenDive/suibotics-core-sub002/control/event"
	"github.com/OpenDive/suibotics-core-sub002/control/session"
)

// Memory is an in-process SessionStore. Each record carries its own mutex;
// Apply holds it for the full read-mutate-write-publish cycle, which is the
// per-session exclusive lock the coordinator's model calls for.
type Memory struct {
	mu        sync.RWMutex
	sessions  map[string]*memoryEntry
	publisher event.Publisher
}

type memoryEntry struct {
	mu   sync.Mutex
	sess session.Session
}

// NewMemory creates an empty in-memory store. Events produced by Apply are
// delivered through publisher; pass event.Discard when no listener exists.
func NewMemory(publisher event.Publisher) *Memory {
	if publisher == nil {
		publisher = event.Discard
	}
	return &Memory{
		sessions:  make(map[string]*memoryEntry),
		publisher: publisher,
	}
}

// Create inserts a new session record.
func (m *Memory) Create(ctx context.Context, s session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return ErrAlreadyExists
	}
	m.sessions[s.ID] = &memoryEntry{sess: s.Clone()}
	return nil
}

// Get returns a copy of a session record.
func (m *Memory) Get(ctx context.Context, id string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}

	entry, err := m.entry(id)
	if err != nil {
		return session.Session{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.sess.Clone(), nil
}

// List returns copies of all session records, in unspecified order.
func (m *Memory) List(ctx context.Context) ([]session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entries := make([]*memoryEntry, 0, len(m.sessions))
	for _, entry := range m.sessions {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	out := make([]session.Session, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		out = append(out, entry.sess.Clone())
		entry.mu.Unlock()
	}
	return out, nil
}

// Apply runs fn against the named session under its exclusive lock. fn works
// on a clone; the clone replaces the stored record only when fn succeeds, so
// a failed call leaves the previous state intact. Events are published before
// the lock is released.
func (m *Memory) Apply(ctx context.Context, id string, fn ApplyFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := m.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	work := entry.sess.Clone()
	events, err := fn(&work)
	if err != nil {
		return err
	}
	entry.sess = work

	for _, evt := range events {
		m.publisher.Publish(evt)
	}
	return nil
}

func (m *Memory) entry(id string) (*memoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	return entry, nil
}
