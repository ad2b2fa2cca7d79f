package event

// Type identifies the kind of a coordinator notification.
type Type string

const (
	// TypeSessionCreated records the opening of a control session.
	TypeSessionCreated Type = "session.created"
	// TypeMoveAccepted records one sequenced, accepted move.
	TypeMoveAccepted Type = "move.accepted"
	// TypeSessionEnded records the termination of a session.
	TypeSessionEnded Type = "session.ended"
)

// CreatedPayload announces a new session to listeners.
type CreatedPayload struct {
	SessionID string `json:"session_id"`
	Creator   string `json:"creator"`
	CreatedAt int64  `json:"created_at"`
	EndTime   int64  `json:"end_time"`
}

// MoveAcceptedPayload carries one accepted move to the actuator. Seq is the
// session-scoped sequence number assigned in serialization order.
type MoveAcceptedPayload struct {
	SessionID      string `json:"session_id"`
	Principal      string `json:"principal"`
	Direction      uint8  `json:"direction"`
	DirectionName  string `json:"direction_name"`
	SubmittedAt    int64  `json:"submitted_at"`
	Seq            uint64 `json:"seq"`
	NewParticipant bool   `json:"new_participant"`
}

// EndedPayload carries the final statistics of a terminated session.
// Duration is EndedAt - CreatedAt, which can exceed the fixed session
// lifetime because expiry is detected lazily.
type EndedPayload struct {
	SessionID        string `json:"session_id"`
	Creator          string `json:"creator"`
	EndedAt          int64  `json:"ended_at"`
	Duration         int64  `json:"duration"`
	TotalMoves       uint64 `json:"total_moves"`
	ParticipantCount int    `json:"participant_count"`
}

// Event is one notification. Exactly one payload pointer is set, matching
// Type.
type Event struct {
	Type      Type                 `json:"type"`
	SessionID string               `json:"session_id"`
	Created   *CreatedPayload      `json:"created,omitempty"`
	Move      *MoveAcceptedPayload `json:"move,omitempty"`
	Ended     *EndedPayload        `json:"ended,omitempty"`
}

// NewCreated builds a session.created event.
func NewCreated(p CreatedPayload) Event {
	return Event{Type: TypeSessionCreated, SessionID: p.SessionID, Created: &p}
}

// NewMoveAccepted builds a move.accepted event.
func NewMoveAccepted(p MoveAcceptedPayload) Event {
	return Event{Type: TypeMoveAccepted, SessionID: p.SessionID, Move: &p}
}

// NewEnded builds a session.ended event.
func NewEnded(p EndedPayload) Event {
	return Event{Type: TypeSessionEnded, SessionID: p.SessionID, Ended: &p}
}

// Publisher delivers notifications to external listeners. Publish must not
// block on slow consumers; delivery is best-effort.
type Publisher interface {
	Publish(evt Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(Event)

// Publish calls f.
func (f PublisherFunc) Publish(evt Event) { f(evt) }

// Discard is a Publisher that drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})
