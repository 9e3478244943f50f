// Package therapy runs AI coaching sessions on top of the session store.
package therapy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mentor/internal/adapters/config"
	"mentor/internal/domain/therapy"
	"mentor/internal/domain/user"
	"mentor/internal/services/advisory"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
)

// Service manages therapy session lifecycle and turn exchange
type Service struct {
	sessions therapy.Repository
	advisor  *advisory.Advisor
	cfg      config.TherapyConfig
	log      *logger.Logger
}

// New creates the therapy service
func New(sessions therapy.Repository, advisor *advisory.Advisor, cfg config.TherapyConfig, log *logger.Logger) *Service {
	return &Service{
		sessions: sessions,
		advisor:  advisor,
		cfg:      cfg,
		log:      log.With("component", "therapy"),
	}
}

// Start opens a session for the user, resuming an active one if present.
// The second return value reports whether an existing session was resumed.
func (s *Service) Start(ctx context.Context, u *user.User) (*therapy.Session, bool, error) {
	existing, err := s.sessions.GetActiveByUser(ctx, u.ID)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	session := therapy.NewSession(u.ID)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, false, err
	}

	s.log.Infow("Therapy session started", "user_id", u.ID, "session_id", session.ID)
	return session, false, nil
}

// HandleTurn sends the user's message to the coach and persists both turns.
// On AI failure nothing is written, so the user can simply retry.
func (s *Service) HandleTurn(ctx context.Context, u *user.User, session *therapy.Session, input string) (string, error) {
	history := session.Turns
	if max := s.cfg.MaxTurns; max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}

	reply, err := s.advisor.TherapyReply(ctx, u, history, input)
	if err != nil {
		return "", err
	}

	userTurn := therapy.NewTurn(therapy.RoleUser, input)
	coachTurn := therapy.NewTurn(therapy.RoleAssistant, reply)

	if err := s.sessions.AppendTurns(ctx, session.ID, userTurn, coachTurn); err != nil {
		return "", errors.Wrap(err, "failed to persist turns")
	}

	// Mutate the in-memory session only once the store has the turns.
	session.Turns = append(session.Turns, userTurn, coachTurn)

	return reply, nil
}

// End closes the user's active session. Returns false when none is open.
func (s *Service) End(ctx context.Context, userID uuid.UUID) (bool, error) {
	session, err := s.sessions.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.sessions.Close(ctx, session.ID, time.Now().UTC()); err != nil {
		return false, err
	}

	s.log.Infow("Therapy session ended", "user_id", userID, "session_id", session.ID)
	return true, nil
}

// CloseIdle closes sessions whose last activity is older than the idle
// timeout and returns them so the caller can notify their owners.
func (s *Service) CloseIdle(ctx context.Context, now time.Time) ([]*therapy.Session, error) {
	cutoff := now.Add(-s.cfg.IdleTimeout)

	idle, err := s.sessions.ListIdleActive(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	closed := make([]*therapy.Session, 0, len(idle))
	for _, session := range idle {
		if err := s.sessions.Close(ctx, session.ID, now); err != nil {
			s.log.Warnw("Failed to close idle session",
				"session_id", session.ID, "error", err)
			continue
		}
		closed = append(closed, session)
	}

	if len(closed) > 0 {
		s.log.Infow("Closed idle therapy sessions", "count", len(closed))
	}

	return closed, nil
}
