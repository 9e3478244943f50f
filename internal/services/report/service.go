// Package report generates weekly performance reports.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mentor/internal/domain/report"
	"mentor/internal/domain/stats"
	"mentor/internal/domain/user"
	"mentor/internal/repository/postgres"
	"mentor/internal/services/advisory"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
)

// ErrNoTrades is returned when the user has no trades in the report window
var ErrNoTrades = errors.New("no trades in report window")

// Service builds and stores weekly reports
type Service struct {
	db      *sqlx.DB
	advisor *advisory.Advisor
	log     *logger.Logger
}

// New creates the report service
func New(db *sqlx.DB, advisor *advisory.Advisor, log *logger.Logger) *Service {
	return &Service{db: db, advisor: advisor, log: log.With("component", "report")}
}

// GetOrGenerate returns the stored report for the week containing at,
// generating one on the fly if it does not exist yet.
func (s *Service) GetOrGenerate(ctx context.Context, u *user.User, at time.Time) (*report.WeeklyReport, error) {
	weekStart, _ := report.WeekWindow(at)

	repos := postgres.NewRepos(s.db)
	existing, err := repos.Reports.GetByUserWeek(ctx, u.ID, weekStart)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	return s.Generate(ctx, u, at)
}

// Generate computes stats for the week containing at, asks the advisor for
// a narrative and writes the report row. Stats and narrative land together
// or not at all: an AI failure leaves no row, so the next attempt retries
// from scratch. A concurrent insert for the same week wins by uniqueness
// and is returned as ErrAlreadyExists.
func (s *Service) Generate(ctx context.Context, u *user.User, at time.Time) (*report.WeeklyReport, error) {
	weekStart, weekEnd := report.WeekWindow(at)

	repos := postgres.NewRepos(s.db)
	trades, err := repos.Trades.ListByUserBetween(ctx, u.ID, weekStart, weekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load week trades")
	}
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}

	week := stats.ComputeWeek(trades)

	narrative, err := s.advisor.WeeklyNarrative(ctx, u, week, weekStart)
	if err != nil {
		return nil, errors.Wrap(err, "narrative generation failed")
	}

	rpt := &report.WeeklyReport{
		ID:            uuid.New(),
		UserID:        u.ID,
		WeekStart:     weekStart,
		WeekEnd:       weekEnd,
		TotalTrades:   week.TotalTrades,
		Wins:          week.Wins,
		Losses:        week.Losses,
		Breakevens:    week.Breakevens,
		WinRate:       week.WeeklyWinRate,
		NetProfitLoss: week.NetProfitLoss,
		Narrative:     narrative,
		GeneratedAt:   time.Now().UTC(),
	}

	err = postgres.WithinTx(ctx, s.db, func(txRepos *postgres.Repos) error {
		return txRepos.Reports.Create(ctx, rpt)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Weekly report generated",
		"user_id", u.ID,
		"week_start", weekStart.Format("2006-01-02"),
		"trades", week.TotalTrades)

	return rpt, nil
}

// GenerateForAll produces the report for the week containing at for every
// given user, calling deliver for each report written. Users without trades
// in the window and users whose report already exists are skipped. Returns
// the number of reports written.
func (s *Service) GenerateForAll(ctx context.Context, users []*user.User, at time.Time, deliver func(*user.User, *report.WeeklyReport)) int {
	generated := 0

	for _, u := range users {
		if ctx.Err() != nil {
			break
		}

		rpt, err := s.Generate(ctx, u, at)
		switch {
		case err == nil:
			generated++
			if deliver != nil {
				deliver(u, rpt)
			}
		case errors.Is(err, ErrNoTrades):
			continue
		case errors.Is(err, errors.ErrAlreadyExists):
			continue
		default:
			s.log.Warnw("Report generation failed", "user_id", u.ID, "error", err)
		}
	}

	return generated
}
