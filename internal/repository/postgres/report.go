package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"mentor/internal/domain/report"
	"mentor/pkg/errors"
)

// Compile-time check
var _ report.Repository = (*WeeklyReportRepository)(nil)

// WeeklyReportRepository implements report.Repository using sqlx
type WeeklyReportRepository struct {
	db DBTX
}

// NewWeeklyReportRepository creates a new weekly report repository
func NewWeeklyReportRepository(db DBTX) *WeeklyReportRepository {
	return &WeeklyReportRepository{db: db}
}

const reportColumns = `id, user_id, week_start, week_end, total_trades, wins, losses,
	   breakevens, win_rate, net_profit_loss, narrative, generated_at`

// Create inserts a report row; one report per user per week
func (r *WeeklyReportRepository) Create(ctx context.Context, rep *report.WeeklyReport) error {
	query := `
		INSERT INTO weekly_reports (
			id, user_id, week_start, week_end, total_trades, wins, losses,
			breakevens, win_rate, net_profit_loss, narrative, generated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.UserID, rep.WeekStart, rep.WeekEnd, rep.TotalTrades, rep.Wins, rep.Losses,
		rep.Breakevens, rep.WinRate, rep.NetProfitLoss, rep.Narrative, rep.GeneratedAt,
	)
	if isUniqueViolation(err) {
		return errors.Wrap(errors.ErrAlreadyExists, "report already generated for week")
	}

	return err
}

// GetByUserWeek retrieves the report for a week start date
func (r *WeeklyReportRepository) GetByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*report.WeeklyReport, error) {
	var rep report.WeeklyReport

	query := `SELECT ` + reportColumns + ` FROM weekly_reports WHERE user_id = $1 AND week_start = $2`

	err := r.db.GetContext(ctx, &rep, query, userID, weekStart)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "report not found")
	}
	if err != nil {
		return nil, err
	}

	return &rep, nil
}

// ListByUser retrieves all reports for a user, newest week first
func (r *WeeklyReportRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*report.WeeklyReport, error) {
	var reports []*report.WeeklyReport

	query := `
		SELECT ` + reportColumns + `
		FROM weekly_reports
		WHERE user_id = $1
		ORDER BY week_start DESC`

	err := r.db.SelectContext(ctx, &reports, query, userID)
	if err != nil {
		return nil, err
	}

	return reports, nil
}
