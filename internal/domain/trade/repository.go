package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for trade data access
type Repository interface {
	Create(ctx context.Context, t *Trade) error
	GetByID(ctx context.Context, id uuid.UUID) (*Trade, error)

	// ListByUser returns all trades for a user ordered by trade date ascending
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Trade, error)

	// ListByUserBetween returns trades with trade_date in [from, to]
	ListByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*Trade, error)
}
