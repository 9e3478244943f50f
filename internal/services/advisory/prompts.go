package advisory

import (
	"encoding/json"
	"fmt"

	"mentor/internal/domain/stats"
	"mentor/internal/domain/trade"
	"mentor/internal/domain/user"
	"mentor/pkg/errors"
)

const therapySystemPrompt = "You are a professional trading psychology coach. You provide emotional support " +
	"and practical advice to traders who may be experiencing stress, anxiety, FOMO, or other psychological " +
	"challenges related to trading. Your responses should be empathetic, supportive, and focused on helping " +
	"the trader develop a healthy mindset. Avoid giving specific financial or investment advice. Instead, " +
	"focus on the psychological aspects of trading. Keep responses clear and reasonably short."

const summarySystemPrompt = "You are an AI trading coach analyzing a trader's performance. Based on their " +
	"trade history, provide a comprehensive analysis of their trading patterns, strengths, weaknesses, and " +
	"actionable advice. Your analysis should cover trading psychology, risk management, and pattern " +
	"recognition. Provide specific, personalized advice based on the data."

const narrativeSystemPrompt = "You are an AI trading coach writing a short weekly review for a trader. " +
	"Based on the week's statistics, summarize how the week went, point out one strength and one weakness, " +
	"and give one concrete focus for next week. Keep it under 200 words and do not give financial advice."

// userInfoBlock renders the trader profile section shared by all prompts
func userInfoBlock(u *user.User) string {
	account := string(u.AccountType)
	if u.Phase != "" {
		account = fmt.Sprintf("%s - %s", account, u.Phase)
	}

	return fmt.Sprintf(
		"Trader Information:\n"+
			"- Name: %s\n"+
			"- Age: %d\n"+
			"- Trading Experience: %.1f years (%s)\n"+
			"- Account Type: %s\n"+
			"- Initial Balance: $%s\n"+
			"- Current Balance: $%s\n",
		u.FullName,
		u.Age,
		u.TradingYears,
		u.ExperienceLevel,
		account,
		u.InitialBalance.StringFixed(2),
		u.CurrentBalance.StringFixed(2),
	)
}

// tradeExport is the JSON shape of one trade inside an analysis prompt
type tradeExport struct {
	Date       string `json:"date"`
	Pair       string `json:"pair"`
	Direction  string `json:"direction"`
	EntryPrice string `json:"entry_price"`
	ExitPrice  string `json:"exit_price"`
	Result     string `json:"result"`
	ProfitLoss string `json:"profit_loss"`
	Notes      string `json:"notes,omitempty"`
}

func tradesJSON(trades []*trade.Trade) (string, error) {
	exports := make([]tradeExport, 0, len(trades))
	for _, t := range trades {
		exports = append(exports, tradeExport{
			Date:       t.TradeDate.Format("2006-01-02"),
			Pair:       t.Pair,
			Direction:  string(t.Direction),
			EntryPrice: t.EntryPrice.String(),
			ExitPrice:  t.ExitPrice.String(),
			Result:     string(t.Result),
			ProfitLoss: t.ProfitLoss.String(),
			Notes:      t.Notes,
		})
	}

	data, err := json.MarshalIndent(exports, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal trade history")
	}

	return string(data), nil
}

func summaryPrompt(u *user.User, trades []*trade.Trade) (string, error) {
	history, err := tradesJSON(trades)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"%s\n\nTrade History (JSON format):\n%s\n\n"+
			"Please provide a detailed analysis of this trader's performance, including:\n"+
			"1. Overall performance assessment\n"+
			"2. Strengths and weaknesses\n"+
			"3. Pattern recognition (best/worst pairs, time patterns, etc.)\n"+
			"4. Psychological tendencies evident from the data\n"+
			"5. Specific, actionable recommendations for improvement\n",
		userInfoBlock(u), history), nil
}

func narrativePrompt(u *user.User, week stats.WeekSummary, weekStart string) string {
	return fmt.Sprintf(
		"%s\nWeek starting %s:\n"+
			"- Trades: %d (wins %d, losses %d, breakevens %d)\n"+
			"- Win rate: %.2f%%\n"+
			"- Net P/L: %s\n"+
			"- Longest win streak: %d, longest loss streak: %d\n"+
			"- Most traded pair: %s\n",
		userInfoBlock(u),
		weekStart,
		week.TotalTrades,
		week.Wins,
		week.Losses,
		week.Breakevens,
		week.WeeklyWinRate,
		week.NetProfitLoss.StringFixed(2),
		week.LongestWinStreak,
		week.LongestLossStreak,
		week.MostTradedPair,
	)
}
