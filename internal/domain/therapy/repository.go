package therapy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for therapy session data access
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// GetActiveByUser returns the user's open session,
	// or errors.ErrNotFound when none is open
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Session, error)

	// AppendTurns persists new turns onto an existing session
	AppendTurns(ctx context.Context, id uuid.UUID, turns ...Turn) error

	// Close sets ended_at; closing an already closed session is a no-op
	Close(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListIdleActive returns open sessions whose last turn is older
	// than the cutoff, for the inactivity sweeper
	ListIdleActive(ctx context.Context, cutoff time.Time) ([]*Session, error)
}
