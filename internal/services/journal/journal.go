// Package journal commits finished journal entries atomically.
package journal

import (
	"context"

	"github.com/jmoiron/sqlx"

	"mentor/internal/domain/trade"
	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/internal/repository/postgres"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
)

// Service persists completed trades and keeps the running balance in sync
type Service struct {
	db  *sqlx.DB
	log *logger.Logger
}

// New creates the journal service
func New(db *sqlx.DB, log *logger.Logger) *Service {
	return &Service{db: db, log: log.With("component", "journal")}
}

// Commit validates the trade, inserts it and moves the user's balance
// by the trade's signed P/L in a single transaction. The trade row is
// immutable once written; a correction means a new entry.
func (s *Service) Commit(ctx context.Context, u *user.User, t *trade.Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}

	err := postgres.WithinTx(ctx, s.db, func(repos *postgres.Repos) error {
		if err := repos.Trades.Create(ctx, t); err != nil {
			return errors.Wrap(err, "failed to insert trade")
		}

		u.ApplyTradeResult(t.ProfitLoss)
		if err := repos.Users.Update(ctx, u); err != nil {
			return errors.Wrap(err, "failed to update balance")
		}

		return nil
	})

	metrics.RecordDBQuery("journal_commit", err)
	if err != nil {
		return err
	}

	s.log.Infow("Trade journaled",
		"user_id", u.ID,
		"trade_id", t.ID,
		"pair", t.Pair,
		"result", t.Result,
		"profit_loss", t.ProfitLoss,
		"balance", u.CurrentBalance)

	return nil
}
