package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mentor/internal/domain/flow"
	"mentor/internal/domain/trade"
	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/pkg/telegram"
)

// Journaling steps
const (
	jrnStepDate = iota
	jrnStepPair
	jrnStepDirection
	jrnStepEntryPrice
	jrnStepStopLoss
	jrnStepTakeProfit
	jrnStepExitPrice
	jrnStepResult
	jrnStepBreakevenPL
	jrnStepScreenshot
	jrnStepNotes
)

const (
	fieldTradeDate   = "trade_date"
	fieldPair        = "pair"
	fieldDirection   = "direction"
	fieldEntryPrice  = "entry_price"
	fieldStopLoss    = "stop_loss"
	fieldTakeProfit  = "take_profit"
	fieldExitPrice   = "exit_price"
	fieldResult      = "result"
	fieldProfitLoss  = "profit_loss"
	fieldScreenshot  = "screenshot"
	fieldNotes       = "notes"
)

var pairPattern = regexp.MustCompile(`^[A-Z0-9]{3,12}(/[A-Z0-9]{2,6})?$`)

func (h *Handler) handleJournalStep(ctx context.Context, u *user.User, state *flow.State, chatID int64, input flowInput) error {
	text := strings.TrimSpace(input.Text)

	switch state.Step {
	case jrnStepDate:
		date, err := parseTradeDate(text)
		if err != nil {
			return h.rejectStep(state, chatID,
				"Please send \"today\" or a date like 2026-08-24. Future dates don't count.")
		}
		state.Advance(fieldTradeDate, date.Format("2006-01-02"))
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "What pair did you trade? e.g. EURUSD or BTC/USD")

	case jrnStepPair:
		pair := strings.ToUpper(text)
		if !pairPattern.MatchString(pair) {
			return h.rejectStep(state, chatID,
				"That doesn't look like an instrument. Try something like EURUSD, XAUUSD or BTC/USD.")
		}
		state.Advance(fieldPair, pair)
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessageWithKeyboard(chatID, "Long or short?", directionKeyboard())

	case jrnStepDirection:
		direction, ok := trade.ParseDirection(stripPrefix(text, "dir:"))
		if !ok {
			return h.rejectStep(state, chatID, "Please pick long or short below.")
		}
		state.Advance(fieldDirection, string(direction))
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "Entry price?")

	case jrnStepEntryPrice:
		price, err := parsePositiveDecimal(text)
		if err != nil {
			return h.rejectStep(state, chatID, "Please send the entry price as a positive number, e.g. 1.0825.")
		}
		state.Advance(fieldEntryPrice, price.String())
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "Stop loss price?")

	case jrnStepStopLoss:
		price, err := parsePositiveDecimal(text)
		if err != nil {
			return h.rejectStep(state, chatID, "Please send the stop loss as a positive number.")
		}
		if msg, ok := checkStopSide(state, price); !ok {
			return h.rejectStep(state, chatID, msg)
		}
		state.Advance(fieldStopLoss, price.String())
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "Take profit price?")

	case jrnStepTakeProfit:
		price, err := parsePositiveDecimal(text)
		if err != nil {
			return h.rejectStep(state, chatID, "Please send the take profit as a positive number.")
		}
		if msg, ok := checkTargetSide(state, price); !ok {
			return h.rejectStep(state, chatID, msg)
		}
		state.Advance(fieldTakeProfit, price.String())
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "What price did you exit at?")

	case jrnStepExitPrice:
		price, err := parsePositiveDecimal(text)
		if err != nil {
			return h.rejectStep(state, chatID, "Please send the exit price as a positive number.")
		}
		state.Advance(fieldExitPrice, price.String())
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessageWithKeyboard(chatID, "How did it go?", resultKeyboard())

	case jrnStepResult:
		result, ok := trade.ParseResult(stripPrefix(text, "result:"))
		if !ok {
			return h.rejectStep(state, chatID, "Please pick the result below.")
		}
		state.Advance(fieldResult, string(result))

		// Breakevens can still carry a small signed P/L
		if result == trade.ResultBreakeven {
			if err := h.saveStep(ctx, state); err != nil {
				return err
			}
			return h.bot.SendMessage(chatID,
				"What was the exact P/L in dollars? Use a minus sign for a small loss, e.g. -12.50 or 0.")
		}

		state.Step = jrnStepScreenshot
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "Send a screenshot of the trade, or type \"skip\".")

	case jrnStepBreakevenPL:
		pl, err := decimal.NewFromString(strings.TrimPrefix(text, "$"))
		if err != nil {
			return h.rejectStep(state, chatID, "Please send the P/L as a number, e.g. -12.50 or 0.")
		}
		state.Advance(fieldProfitLoss, pl.String())
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "Send a screenshot of the trade, or type \"skip\".")

	case jrnStepScreenshot:
		switch {
		case input.PhotoFileID != "":
			state.Advance(fieldScreenshot, input.PhotoFileID)
		case strings.EqualFold(text, "skip"):
			state.Advance(fieldScreenshot, "")
		default:
			return h.rejectStep(state, chatID, "Send a photo of the trade, or type \"skip\".")
		}
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID,
			"Last one: what's the story behind this trade? Setup, reasoning, how you felt.")

	case jrnStepNotes:
		if text == "" {
			return h.rejectStep(state, chatID,
				"Notes are the whole point of a journal. A sentence or two, please.")
		}
		state.Set(fieldNotes, text)
		return h.commitJournalEntry(ctx, u, state, chatID)

	default:
		return h.repos.Flows.Clear(ctx, u.ID)
	}
}

// commitJournalEntry builds the trade from collected answers and hands it
// to the journal service. The flow row is only cleared after the commit.
func (h *Handler) commitJournalEntry(ctx context.Context, u *user.User, state *flow.State, chatID int64) error {
	tradeDate, _ := time.Parse("2006-01-02", state.Get(fieldTradeDate))
	entry, _ := decimal.NewFromString(state.Get(fieldEntryPrice))
	stop, _ := decimal.NewFromString(state.Get(fieldStopLoss))
	target, _ := decimal.NewFromString(state.Get(fieldTakeProfit))
	exit, _ := decimal.NewFromString(state.Get(fieldExitPrice))

	t := &trade.Trade{
		ID:               uuid.New(),
		UserID:           u.ID,
		TradeDate:        tradeDate,
		Pair:             state.Get(fieldPair),
		Direction:        trade.Direction(state.Get(fieldDirection)),
		EntryPrice:       entry,
		StopLoss:         stop,
		TakeProfit:       target,
		ExitPrice:        exit,
		Result:           trade.Result(state.Get(fieldResult)),
		ScreenshotFileID: state.Get(fieldScreenshot),
		Notes:            state.Get(fieldNotes),
		CreatedAt:        time.Now().UTC(),
	}

	if t.Result == trade.ResultBreakeven {
		t.ProfitLoss, _ = decimal.NewFromString(state.Get(fieldProfitLoss))
	} else {
		t.ProfitLoss = t.ComputeProfitLoss()
	}

	if err := h.services.Journal.Commit(ctx, u, t); err != nil {
		return err
	}

	if err := h.repos.Flows.Clear(ctx, u.ID); err != nil {
		h.log.Warnw("Failed to clear journal flow", "user_id", u.ID, "error", err)
	}

	metrics.RecordFlowCompleted(string(flow.FlowJournaling), "done")

	return h.bot.SendMessage(chatID, fmt.Sprintf(
		"Trade logged. ✅\n\n%s %s %s\nEntry %s → Exit %s\nResult: %s (%s)\nBalance: $%s\n\nAnother one? /journal",
		t.TradeDate.Format("2006-01-02"),
		t.Pair,
		strings.ToUpper(string(t.Direction)),
		t.EntryPrice,
		t.ExitPrice,
		t.Result,
		formatSignedMoney(t.ProfitLoss),
		formatMoney(u.CurrentBalance)))
}

// checkStopSide validates the stop loss against the stored direction and entry
func checkStopSide(state *flow.State, stop decimal.Decimal) (string, bool) {
	entry, _ := decimal.NewFromString(state.Get(fieldEntryPrice))
	switch trade.Direction(state.Get(fieldDirection)) {
	case trade.DirectionLong:
		if stop.GreaterThanOrEqual(entry) {
			return "For a long the stop loss must be below your entry price.", false
		}
	case trade.DirectionShort:
		if stop.LessThanOrEqual(entry) {
			return "For a short the stop loss must be above your entry price.", false
		}
	}
	return "", true
}

// checkTargetSide validates the take profit the same way
func checkTargetSide(state *flow.State, target decimal.Decimal) (string, bool) {
	entry, _ := decimal.NewFromString(state.Get(fieldEntryPrice))
	switch trade.Direction(state.Get(fieldDirection)) {
	case trade.DirectionLong:
		if target.LessThanOrEqual(entry) {
			return "For a long the take profit must be above your entry price.", false
		}
	case trade.DirectionShort:
		if target.GreaterThanOrEqual(entry) {
			return "For a short the take profit must be below your entry price.", false
		}
	}
	return "", true
}

func parseTradeDate(text string) (time.Time, error) {
	if strings.EqualFold(text, "today") {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	date, err := time.Parse("2006-01-02", text)
	if err != nil {
		return time.Time{}, err
	}
	if date.After(time.Now().UTC()) {
		return time.Time{}, fmt.Errorf("trade date in the future")
	}
	return date, nil
}

func directionKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.NewSingleColumnKeyboard(
		[]string{"📈 Long", "📉 Short"},
		[]string{"dir:long", "dir:short"},
	)
}

func resultKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.NewSingleColumnKeyboard(
		[]string{"✅ Win", "❌ Loss", "➖ Breakeven"},
		[]string{"result:win", "result:loss", "result:breakeven"},
	)
}
