package store

import (
	"context"
	"errors"

	"github.com/OpenDive/suibotics-core-sub002/control/event"
	"github.com/OpenDive/suibotics-core-sub002/control/session"
)

var (
	// ErrNotFound indicates a requested session record is missing.
	ErrNotFound = errors.New("session not found")
	// ErrAlreadyExists indicates a create collided with an existing record.
	ErrAlreadyExists = errors.New("session already exists")
)

// ApplyFunc mutates a session record in place and returns the notifications
// the mutation produced. Returning an error aborts the apply: the record is
// not written back and nothing is published.
type ApplyFunc func(s *session.Session) ([]event.Event, error)

// SessionStore persists session records and serializes mutations per session.
//
// Apply is the linearization point of the whole coordinator: it runs fn with
// exclusive access to the named record, writes the mutated record back, and
// publishes fn's events before releasing exclusivity. Implementations choose
// the serialization order of concurrent calls.
type SessionStore interface {
	Create(ctx context.Context, s session.Session) error
	Get(ctx context.Context, id string) (session.Session, error)
	List(ctx context.Context) ([]session.Session, error)
	Apply(ctx context.Context, id string, fn ApplyFunc) error
}
