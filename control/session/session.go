package session

import (
	"errors"
	"slices"
)

// DurationMillis is the fixed wall-clock lifetime of every session. EndTime is
// pinned to CreatedAt + DurationMillis at creation and never changes.
const DurationMillis int64 = 120_000

var (
	// ErrSessionEnded indicates a mutating call against a session that is
	// already terminal.
	ErrSessionEnded = errors.New("session has ended")
	// ErrInvalidDirection indicates a direction value outside the eight-way
	// enumeration.
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrNotYetExpired indicates an explicit end request before the session
	// deadline.
	ErrNotYetExpired = errors.New("session has not yet expired")
)

// Status describes the lifecycle state of a session.
type Status uint8

const (
	// StatusWaiting is the initial state: created, no moves accepted yet.
	StatusWaiting Status = iota
	// StatusActive means at least one move has been accepted before expiry.
	StatusActive
	// StatusEnded is terminal; the record is frozen.
	StatusEnded
)

// String returns the canonical upper-case label for the status.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusActive:
		return "ACTIVE"
	case StatusEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Expired reports whether a session deadline has passed at the given instant.
func Expired(now, endTime int64) bool {
	return now >= endTime
}

// Session is the shared control record many principals mutate concurrently
// (serialized externally, see package doc). Participants holds every principal
// that has had at least one move accepted, in first-seen order, without
// duplicates. TotalMoves doubles as the sequence number of the most recently
// accepted move.
type Session struct {
	ID           string   `json:"id"`
	Creator      string   `json:"creator"`
	Participants []string `json:"participants"`
	Status       Status   `json:"status"`
	CreatedAt    int64    `json:"created_at"`
	EndTime      int64    `json:"end_time"`
	TotalMoves   uint64   `json:"total_moves"`
}

// New creates a session in WAITING state with its deadline fixed at
// now + DurationMillis.
func New(id, creator string, now int64) Session {
	return Session{
		ID:        id,
		Creator:   creator,
		Status:    StatusWaiting,
		CreatedAt: now,
		EndTime:   now + DurationMillis,
	}
}

// IsWaiting reports whether the session has not accepted any move yet.
func (s *Session) IsWaiting() bool { return s.Status == StatusWaiting }

// IsActive reports whether the session has accepted at least one move and is
// not terminal.
func (s *Session) IsActive() bool { return s.Status == StatusActive }

// IsEnded reports whether the session is terminal.
func (s *Session) IsEnded() bool { return s.Status == StatusEnded }

// HasExpired reports whether the deadline has passed at the given instant.
// Note this is independent of Status: an expired session stays WAITING or
// ACTIVE until some call observes the expiry.
func (s *Session) HasExpired(now int64) bool {
	return Expired(now, s.EndTime)
}

// TimeRemaining returns max(0, EndTime - now) in milliseconds.
func (s *Session) TimeRemaining(now int64) int64 {
	if now >= s.EndTime {
		return 0
	}
	return s.EndTime - now
}

// ParticipantCount returns the number of distinct principals with at least one
// accepted move.
func (s *Session) ParticipantCount() int { return len(s.Participants) }

// HasParticipated reports whether the principal has had a move accepted.
func (s *Session) HasParticipated(principal string) bool {
	return slices.Contains(s.Participants, principal)
}

// Clone returns a deep copy of the record.
func (s *Session) Clone() Session {
	out := *s
	out.Participants = slices.Clone(s.Participants)
	return out
}

// MoveOutcome describes what a SubmitMove call did to the session.
type MoveOutcome struct {
	// Accepted is true when the move was recorded and sequenced.
	Accepted bool
	// Terminated is true when this call observed expiry and ended the
	// session instead of recording the move. Accepted and Terminated are
	// mutually exclusive.
	Terminated bool
	// Seq is the sequence number assigned to an accepted move, starting at 1
	// per session, strictly increasing and gapless.
	Seq uint64
	// NewParticipant is true when this accepted move was the principal's
	// first in the session.
	NewParticipant bool
}

// SubmitMove applies one move submission to the session.
//
// If the deadline has passed and the session is still live, the call is
// consumed by termination: the session transitions to ENDED and the move is
// not recorded (Terminated outcome, nil error). Otherwise the move fails with
// ErrSessionEnded on a terminal session or ErrInvalidDirection for an
// out-of-range direction; an accepted move promotes WAITING to ACTIVE,
// appends first-time principals to Participants, and increments TotalMoves,
// whose new value is the move's sequence number.
func (s *Session) SubmitMove(principal string, dir Direction, now int64) (MoveOutcome, error) {
	if s.Status != StatusEnded && Expired(now, s.EndTime) {
		s.Status = StatusEnded
		return MoveOutcome{Terminated: true}, nil
	}
	if s.Status == StatusEnded {
		return MoveOutcome{}, ErrSessionEnded
	}
	if !dir.Valid() {
		return MoveOutcome{}, ErrInvalidDirection
	}

	if s.Status == StatusWaiting {
		s.Status = StatusActive
	}

	newParticipant := !s.HasParticipated(principal)
	if newParticipant {
		s.Participants = append(s.Participants, principal)
	}

	s.TotalMoves++
	return MoveOutcome{
		Accepted:       true,
		Seq:            s.TotalMoves,
		NewParticipant: newParticipant,
	}, nil
}

// End explicitly terminates an expired session. It fails with
// ErrNotYetExpired before the deadline. Ending an already-ENDED session is an
// idempotent no-op: the returned bool is true only for the call that actually
// performed the transition, which is the caller's guard for emitting the
// single termination notification.
func (s *Session) End(now int64) (bool, error) {
	if !Expired(now, s.EndTime) {
		return false, ErrNotYetExpired
	}
	if s.Status == StatusEnded {
		return false, nil
	}
	s.Status = StatusEnded
	return true, nil
}
