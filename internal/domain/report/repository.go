package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for weekly report data access
type Repository interface {
	// Create inserts the report row; (user_id, week_start) is unique
	Create(ctx context.Context, r *WeeklyReport) error

	// GetByUserWeek returns the report for the given week start,
	// or errors.ErrNotFound
	GetByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*WeeklyReport, error)

	// ListByUser returns all reports for a user, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*WeeklyReport, error)
}
