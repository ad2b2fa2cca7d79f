package service

import (
	"github.com/OpenDive/suibotics-core-sub002/control/session"
)

// SessionInfo is the transport-facing view of a session record. Timestamps
// are epoch milliseconds; TimeRemaining and HasExpired are computed against
// the service clock at the moment of the call.
type SessionInfo struct {
	ID               string   `json:"id"`
	Creator          string   `json:"creator"`
	Status           string   `json:"status"`
	CreatedAt        int64    `json:"created_at"`
	EndTime          int64    `json:"end_time"`
	DurationMillis   int64    `json:"duration_millis"`
	TotalMoves       uint64   `json:"total_moves"`
	Participants     []string `json:"participants"`
	ParticipantCount int      `json:"participant_count"`
	TimeRemaining    int64    `json:"time_remaining"`
	HasExpired       bool     `json:"has_expired"`
}

// MoveResult reports the outcome of a movement submission. Exactly one of
// Accepted or Terminated is true on a nil-error return: Terminated means the
// session's deadline had passed, the command was dropped, and the session is
// now ENDED.
type MoveResult struct {
	Accepted       bool         `json:"accepted"`
	Terminated     bool         `json:"terminated"`
	Seq            uint64       `json:"seq,omitempty"`
	NewParticipant bool         `json:"new_participant,omitempty"`
	Session        *SessionInfo `json:"session"`
}

// EndResult reports the outcome of an explicit end call. AlreadyEnded is
// true when the session had already been closed by an earlier call.
type EndResult struct {
	AlreadyEnded bool         `json:"already_ended"`
	Session      *SessionInfo `json:"session"`
}

func newSessionInfo(s session.Session, now int64) *SessionInfo {
	return &SessionInfo{
		ID:               s.ID,
		Creator:          s.Creator,
		Status:           s.Status.String(),
		CreatedAt:        s.CreatedAt,
		EndTime:          s.EndTime,
		DurationMillis:   session.DurationMillis,
		TotalMoves:       s.TotalMoves,
		Participants:     s.Participants,
		ParticipantCount: s.ParticipantCount(),
		TimeRemaining:    s.TimeRemaining(now),
		HasExpired:       s.HasExpired(now),
	}
}
