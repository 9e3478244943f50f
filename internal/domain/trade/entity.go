package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mentor/pkg/errors"
)

// Direction is the side of the trade
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Result is the user-declared outcome of the trade
type Result string

const (
	ResultWin       Result = "win"
	ResultLoss      Result = "loss"
	ResultBreakeven Result = "breakeven"
)

// Trade is one immutable journal entry. Corrections require a new entry.
type Trade struct {
	ID               uuid.UUID       `db:"id"`
	UserID           uuid.UUID       `db:"user_id"`
	TradeDate        time.Time       `db:"trade_date"`
	Pair             string          `db:"pair"`
	Direction        Direction       `db:"direction"`
	EntryPrice       decimal.Decimal `db:"entry_price"`
	StopLoss         decimal.Decimal `db:"stop_loss"`
	TakeProfit       decimal.Decimal `db:"take_profit"`
	ExitPrice        decimal.Decimal `db:"exit_price"`
	Result           Result          `db:"result"`
	ProfitLoss       decimal.Decimal `db:"profit_loss"`
	ScreenshotFileID string          `db:"screenshot_file_id"`
	Notes            string          `db:"notes"`
	CreatedAt        time.Time       `db:"created_at"`
}

// ParseDirection validates user input against the known directions
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(s)) {
	case DirectionLong, DirectionShort:
		return Direction(strings.ToLower(s)), true
	}
	return "", false
}

// ParseResult validates user input against the known results
func ParseResult(s string) (Result, bool) {
	switch Result(strings.ToLower(s)) {
	case ResultWin, ResultLoss, ResultBreakeven:
		return Result(strings.ToLower(s)), true
	}
	return "", false
}

// Validate checks the trade before it is committed.
// Stop loss and take profit must sit on the correct side of the entry
// price for the direction: long means SL < entry < TP, short the reverse.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.Pair) == "" {
		return errors.NewValidationError("pair", "pair is required", t.Pair)
	}
	if t.Direction != DirectionLong && t.Direction != DirectionShort {
		return errors.NewValidationError("direction", "must be long or short", string(t.Direction))
	}
	if !t.EntryPrice.IsPositive() {
		return errors.NewValidationError("entry_price", "must be a positive price", t.EntryPrice)
	}
	if !t.ExitPrice.IsPositive() {
		return errors.NewValidationError("exit_price", "must be a positive price", t.ExitPrice)
	}

	switch t.Direction {
	case DirectionLong:
		if t.StopLoss.GreaterThanOrEqual(t.EntryPrice) {
			return errors.NewValidationError("stop_loss", "must be below entry price for a long", t.StopLoss)
		}
		if t.TakeProfit.LessThanOrEqual(t.EntryPrice) {
			return errors.NewValidationError("take_profit", "must be above entry price for a long", t.TakeProfit)
		}
	case DirectionShort:
		if t.StopLoss.LessThanOrEqual(t.EntryPrice) {
			return errors.NewValidationError("stop_loss", "must be above entry price for a short", t.StopLoss)
		}
		if t.TakeProfit.GreaterThanOrEqual(t.EntryPrice) {
			return errors.NewValidationError("take_profit", "must be below entry price for a short", t.TakeProfit)
		}
	}

	switch t.Result {
	case ResultWin, ResultLoss, ResultBreakeven:
	default:
		return errors.NewValidationError("result", "must be win, loss or breakeven", string(t.Result))
	}

	if strings.TrimSpace(t.Notes) == "" {
		return errors.NewValidationError("notes", "notes are required", t.Notes)
	}

	return nil
}

// ComputeProfitLoss returns the signed price move of the trade:
// exit minus entry for longs, entry minus exit for shorts.
func (t *Trade) ComputeProfitLoss() decimal.Decimal {
	if t.Direction == DirectionShort {
		return t.EntryPrice.Sub(t.ExitPrice)
	}
	return t.ExitPrice.Sub(t.EntryPrice)
}
