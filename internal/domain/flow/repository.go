package flow

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists per-user flow state.
// Get returns errors.ErrNotFound when the user has no active flow.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*State, error)

	// Save upserts the state row for the user (one active row per user)
	Save(ctx context.Context, state *State) error

	// Clear removes the state row; clearing an absent row is a no-op
	Clear(ctx context.Context, userID uuid.UUID) error
}
