package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeeklyReport aggregates one calendar week of trading plus an
// AI-generated narrative. Rows are immutable once written; the
// stats and the narrative are committed together or not at all.
type WeeklyReport struct {
	ID            uuid.UUID       `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	WeekStart     time.Time       `db:"week_start"`
	WeekEnd       time.Time       `db:"week_end"`
	TotalTrades   int             `db:"total_trades"`
	Wins          int             `db:"wins"`
	Losses        int             `db:"losses"`
	Breakevens    int             `db:"breakevens"`
	WinRate       float64         `db:"win_rate"`
	NetProfitLoss decimal.Decimal `db:"net_profit_loss"`
	Narrative     string          `db:"narrative"`
	GeneratedAt   time.Time       `db:"generated_at"`
}

// WeekWindow returns the Monday..Sunday window containing t (UTC dates)
func WeekWindow(t time.Time) (start, end time.Time) {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(day.Weekday())
	// time.Weekday starts at Sunday; shift so Monday opens the week
	offset := (weekday + 6) % 7
	start = day.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}
