package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repos bundles repositories bound to a single transaction
type Repos struct {
	Users    *UserRepository
	Trades   *TradeRepository
	Flows    *FlowStateRepository
	Sessions *TherapySessionRepository
	Reports  *WeeklyReportRepository
}

// NewRepos builds the repository set over any DBTX
func NewRepos(db DBTX) *Repos {
	return &Repos{
		Users:    NewUserRepository(db),
		Trades:   NewTradeRepository(db),
		Flows:    NewFlowStateRepository(db),
		Sessions: NewTherapySessionRepository(db),
		Reports:  NewWeeklyReportRepository(db),
	}
}

// WithinTx runs fn inside a database transaction. The transaction is
// rolled back when fn returns an error and committed otherwise.
func WithinTx(ctx context.Context, db *sqlx.DB, fn func(r *Repos) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(NewRepos(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
