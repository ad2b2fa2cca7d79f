package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/OpenDive/suibotics-core-sub002/control/event"
	"github.com/OpenDive/suibotics-core-sub002/control/session"
	"github.com/OpenDive/suibotics-core-sub002/control/store"
	"github.com/OpenDive/suibotics-core-sub002/metrics"
)

// ControlService defines all session coordination operations.
type ControlService interface {
	// Session Management
	CreateSession(ctx context.Context, creator string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)

	// Control Operations
	SubmitMove(ctx context.Context, sessionID, principal string, dir session.Direction) (*MoveResult, error)
	EndSession(ctx context.Context, sessionID string) (*EndResult, error)
}

// Option customizes a ControlService, mainly for tests.
type Option func(*controlService)

// WithClock replaces the wall clock used to stamp operations.
func WithClock(clock func() time.Time) Option {
	return func(s *controlService) {
		s.clock = clock
	}
}

// WithIDGenerator replaces the session ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *controlService) {
		s.newID = newID
	}
}

// controlService implements the ControlService interface.
type controlService struct {
	store     store.SessionStore
	publisher event.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string
}

// NewControlService creates a new control service instance. publisher
// receives session.created notifications; move and end notifications flow
// through the store. Nil publisher, logger, or metrics fall back to inert
// defaults.
func NewControlService(st store.SessionStore, publisher event.Publisher, logger *slog.Logger, m *metrics.Metrics, opts ...Option) ControlService {
	if publisher == nil {
		publisher = event.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	s := &controlService{
		store:     st,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new movement session owned by creator.
func (s *controlService) CreateSession(ctx context.Context, creator string) (*SessionInfo, error) {
	if strings.TrimSpace(creator) == "" {
		return nil, fmt.Errorf("creator is required")
	}

	now := s.clock().UnixMilli()
	sess := session.New(s.newID(), creator, now)

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.publisher.Publish(event.NewCreated(event.CreatedPayload{
		SessionID: sess.ID,
		Creator:   sess.Creator,
		CreatedAt: sess.CreatedAt,
		EndTime:   sess.EndTime,
	}))
	s.metrics.SessionsCreated.Inc()
	s.logger.Info("session created",
		"session_id", sess.ID,
		"creator", creator,
		"end_time", sess.EndTime)

	return newSessionInfo(sess, now), nil
}

// GetSession retrieves a session snapshot.
func (s *controlService) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	now := s.clock().UnixMilli()

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return newSessionInfo(sess, now), nil
}

// ListSessions returns snapshots of all known sessions.
func (s *controlService) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	now := s.clock().UnixMilli()

	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, newSessionInfo(sess, now))
	}
	return result, nil
}

// SubmitMove records a movement command against a session. When the session's
// deadline has already passed, the command is dropped, the session is closed,
// and the result reports Terminated instead of Accepted.
func (s *controlService) SubmitMove(ctx context.Context, sessionID, principal string, dir session.Direction) (*MoveResult, error) {
	if strings.TrimSpace(principal) == "" {
		return nil, fmt.Errorf("principal is required")
	}

	now := s.clock().UnixMilli()

	var outcome session.MoveOutcome
	var snapshot session.Session
	err := s.store.Apply(ctx, sessionID, func(sess *session.Session) ([]event.Event, error) {
		out, err := sess.SubmitMove(principal, dir, now)
		if err != nil {
			return nil, err
		}
		outcome = out
		snapshot = sess.Clone()

		if out.Terminated {
			return []event.Event{event.NewEnded(event.EndedPayload{
				SessionID:        sess.ID,
				Creator:          sess.Creator,
				EndedAt:          now,
				Duration:         now - sess.CreatedAt,
				TotalMoves:       sess.TotalMoves,
				ParticipantCount: sess.ParticipantCount(),
			})}, nil
		}
		return []event.Event{event.NewMoveAccepted(event.MoveAcceptedPayload{
			SessionID:      sess.ID,
			Principal:      principal,
			Direction:      uint8(dir),
			DirectionName:  dir.String(),
			SubmittedAt:    now,
			Seq:            out.Seq,
			NewParticipant: out.NewParticipant,
		})}, nil
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	if outcome.Terminated {
		s.metrics.SessionsEnded.Inc()
		s.metrics.MovesRejected.WithLabelValues(metrics.ReasonExpired).Inc()
		s.logger.Info("session expired on move",
			"session_id", sessionID,
			"principal", principal,
			"total_moves", snapshot.TotalMoves)
	} else {
		s.metrics.MovesAccepted.Inc()
		s.logger.Debug("move accepted",
			"session_id", sessionID,
			"principal", principal,
			"direction", dir.String(),
			"seq", outcome.Seq)
	}

	return &MoveResult{
		Accepted:       outcome.Accepted,
		Terminated:     outcome.Terminated,
		Seq:            outcome.Seq,
		NewParticipant: outcome.NewParticipant,
		Session:        newSessionInfo(snapshot, now),
	}, nil
}

// EndSession closes a session whose deadline has passed. Ending an already
// ENDED session is a no-op reported through AlreadyEnded; ending before the
// deadline fails with session.ErrNotYetExpired.
func (s *controlService) EndSession(ctx context.Context, sessionID string) (*EndResult, error) {
	now := s.clock().UnixMilli()

	var ended bool
	var snapshot session.Session
	err := s.store.Apply(ctx, sessionID, func(sess *session.Session) ([]event.Event, error) {
		didEnd, err := sess.End(now)
		if err != nil {
			return nil, err
		}
		ended = didEnd
		snapshot = sess.Clone()

		if !didEnd {
			return nil, nil
		}
		return []event.Event{event.NewEnded(event.EndedPayload{
			SessionID:        sess.ID,
			Creator:          sess.Creator,
			EndedAt:          now,
			Duration:         now - sess.CreatedAt,
			TotalMoves:       sess.TotalMoves,
			ParticipantCount: sess.ParticipantCount(),
		})}, nil
	})
	if err != nil {
		return nil, err
	}

	if ended {
		s.metrics.SessionsEnded.Inc()
		s.logger.Info("session ended",
			"session_id", sessionID,
			"total_moves", snapshot.TotalMoves,
			"participants", snapshot.ParticipantCount())
	}

	return &EndResult{
		AlreadyEnded: !ended,
		Session:      newSessionInfo(snapshot, now),
	}, nil
}

func (s *controlService) countRejection(err error) {
	switch {
	case errors.Is(err, session.ErrSessionEnded):
		s.metrics.MovesRejected.WithLabelValues(metrics.ReasonSessionEnded).Inc()
	case errors.Is(err, session.ErrInvalidDirection):
		s.metrics.MovesRejected.WithLabelValues(metrics.ReasonInvalidDirection).Inc()
	case errors.Is(err, store.ErrNotFound):
		s.metrics.MovesRejected.WithLabelValues(metrics.ReasonNotFound).Inc()
	}
}
