package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"mentor/internal/domain/trade"
	"mentor/pkg/errors"
)

// Compile-time check
var _ trade.Repository = (*TradeRepository)(nil)

// TradeRepository implements trade.Repository using sqlx
type TradeRepository struct {
	db DBTX
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db DBTX) *TradeRepository {
	return &TradeRepository{db: db}
}

const tradeColumns = `id, user_id, trade_date, pair, direction,
	   entry_price, stop_loss, take_profit, exit_price,
	   result, profit_loss, screenshot_file_id, notes, created_at`

// Create inserts a new trade
func (r *TradeRepository) Create(ctx context.Context, t *trade.Trade) error {
	query := `
		INSERT INTO trades (
			id, user_id, trade_date, pair, direction,
			entry_price, stop_loss, take_profit, exit_price,
			result, profit_loss, screenshot_file_id, notes, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.TradeDate, t.Pair, t.Direction,
		t.EntryPrice, t.StopLoss, t.TakeProfit, t.ExitPrice,
		t.Result, t.ProfitLoss, t.ScreenshotFileID, t.Notes, t.CreatedAt,
	)

	return err
}

// GetByID retrieves a trade by ID
func (r *TradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*trade.Trade, error) {
	var t trade.Trade

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	err := r.db.GetContext(ctx, &t, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "trade not found")
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// ListByUser retrieves all trades for a user ordered by trade date
func (r *TradeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*trade.Trade, error) {
	var trades []*trade.Trade

	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1
		ORDER BY trade_date, created_at`

	err := r.db.SelectContext(ctx, &trades, query, userID)
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// ListByUserBetween retrieves trades within a date window, inclusive on both ends
func (r *TradeRepository) ListByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*trade.Trade, error) {
	var trades []*trade.Trade

	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date, created_at`

	err := r.db.SelectContext(ctx, &trades, query, userID, from, to)
	if err != nil {
		return nil, err
	}

	return trades, nil
}
