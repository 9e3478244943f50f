package telegram

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"mentor/internal/domain/report"
	"mentor/internal/domain/stats"
	"mentor/internal/domain/user"
)

// formatStats renders the /stats view
func formatStats(u *user.User, s stats.Summary) string {
	if !s.HasData {
		return "No trades in your journal yet. Log the first one with /journal."
	}

	var b strings.Builder

	b.WriteString("📊 *Your Trading Statistics*\n\n")
	fmt.Fprintf(&b, "Trades: %s (✅ %d  ❌ %d  ➖ %d)\n",
		humanize.Comma(int64(s.TotalTrades)), s.Wins, s.Losses, s.Breakevens)
	fmt.Fprintf(&b, "Win rate: %.2f%%\n", s.WinRate)
	fmt.Fprintf(&b, "Net P/L: %s\n", formatSignedMoney(s.NetProfitLoss))
	fmt.Fprintf(&b, "Avg win: $%s  |  Avg loss: $%s\n", s.AvgWin.StringFixed(2), s.AvgLoss.StringFixed(2))

	if !s.RiskReward.IsZero() {
		fmt.Fprintf(&b, "Risk/reward: %s\n", s.RiskReward.StringFixed(2))
	}

	fmt.Fprintf(&b, "\nStreaks: best %d wins, worst %d losses\n", s.LongestWinStreak, s.LongestLossStreak)
	switch {
	case s.CurrentStreak > 0:
		fmt.Fprintf(&b, "Right now: %d winning in a row 🔥\n", s.CurrentStreak)
	case s.CurrentStreak < 0:
		fmt.Fprintf(&b, "Right now: %d losing in a row. Breathe.\n", -s.CurrentStreak)
	}

	if s.MostTradedPair != "" {
		fmt.Fprintf(&b, "\nMost traded: %s\n", s.MostTradedPair)
	}
	if s.BestPair != "" {
		fmt.Fprintf(&b, "Best pair: %s\n", s.BestPair)
	}
	if s.WorstPair != "" {
		fmt.Fprintf(&b, "Worst pair: %s\n", s.WorstPair)
	}

	for _, d := range s.ByDirection {
		fmt.Fprintf(&b, "\n%s: %d trades, net %s",
			capitalize(string(d.Direction)), d.Count, formatSignedMoney(d.NetPL))
	}

	fmt.Fprintf(&b, "\n\nBalance: $%s (started at $%s)",
		formatMoney(u.CurrentBalance), formatMoney(u.InitialBalance))

	return b.String()
}

// formatReport renders a stored weekly report
func formatReport(r *report.WeeklyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🗓 *Weekly Report: %s – %s*\n\n",
		r.WeekStart.Format("Jan 2"), r.WeekEnd.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "Trades: %d (✅ %d  ❌ %d  ➖ %d)\n",
		r.TotalTrades, r.Wins, r.Losses, r.Breakevens)
	fmt.Fprintf(&b, "Win rate: %.2f%%\n", r.WinRate)
	fmt.Fprintf(&b, "Net P/L: %s\n\n", formatSignedMoney(r.NetProfitLoss))
	b.WriteString(r.Narrative)

	return b.String()
}

func describeAccount(u *user.User) string {
	if u.Phase != "" {
		return fmt.Sprintf("%s (%s)", u.AccountType, u.Phase)
	}
	return string(u.AccountType)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatMoney renders a decimal with thousands separators, two digits
func formatMoney(d decimal.Decimal) string {
	f, _ := d.Float64()
	return humanize.CommafWithDigits(f, 2)
}

// formatSignedMoney keeps the sign visible: +$120.00 / -$35.50
func formatSignedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + formatMoney(d.Neg())
	}
	return "+$" + formatMoney(d)
}
