package telegram

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"mentor/internal/domain/flow"
	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/internal/repository/postgres"
	"mentor/pkg/errors"
	"mentor/pkg/telegram"
)

// Registration steps
const (
	regStepFullName = iota
	regStepAge
	regStepTradingYears
	regStepExperience
	regStepAccountType
	regStepPhase
	regStepProfitTarget
	regStepInitialBalance
)

// Collected field names
const (
	fieldFullName       = "full_name"
	fieldAge            = "age"
	fieldTradingYears   = "trading_years"
	fieldExperience     = "experience"
	fieldAccountType    = "account_type"
	fieldPhase          = "phase"
	fieldProfitTarget   = "profit_target"
	fieldInitialBalance = "initial_balance"
)

func (h *Handler) handleRegistrationStep(ctx context.Context, u *user.User, state *flow.State, chatID int64, input flowInput) error {
	text := strings.TrimSpace(input.Text)

	switch state.Step {
	case regStepFullName:
		if text == "" || len(text) > 100 {
			return h.rejectStep(state, chatID, "Please send your full name as plain text.")
		}
		state.Advance(fieldFullName, text)
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, fmt.Sprintf("Nice to meet you, %s! How old are you?", text))

	case regStepAge:
		age, err := strconv.Atoi(text)
		if err != nil || age < 10 || age > 100 {
			return h.rejectStep(state, chatID, "Please send your age as a number, e.g. 27.")
		}
		state.Advance(fieldAge, text)
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "How many years have you been trading? Decimals are fine, e.g. 1.5.")

	case regStepTradingYears:
		years, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(years) || years < 0 || years > 80 {
			return h.rejectStep(state, chatID, "Please send your trading experience in years, e.g. 2 or 0.5.")
		}
		state.Advance(fieldTradingYears, text)
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessageWithKeyboard(chatID,
			"How would you rate your experience level?", experienceKeyboard())

	case regStepExperience:
		level, ok := user.ParseExperienceLevel(stripPrefix(text, "exp:"))
		if !ok {
			return h.rejectStep(state, chatID, "Please pick one of the experience levels below.")
		}
		state.Advance(fieldExperience, string(level))
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessageWithKeyboard(chatID,
			"What kind of account do you trade on?", accountTypeKeyboard())

	case regStepAccountType:
		accountType, ok := user.ParseAccountType(stripPrefix(text, "acct:"))
		if !ok {
			return h.rejectStep(state, chatID, "Please pick your account type below.")
		}
		state.Advance(fieldAccountType, string(accountType))

		// Demo accounts have no evaluation phase
		if accountType == user.AccountDemo {
			state.Step = regStepProfitTarget
			if err := h.saveStep(ctx, state); err != nil {
				return err
			}
			return h.bot.SendMessage(chatID, "What's your profit target in dollars? e.g. 5000")
		}

		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessageWithKeyboard(chatID,
			"Which evaluation phase are you in?", phaseKeyboard())

	case regStepPhase:
		phase, ok := user.ParsePhase(stripPrefix(text, "phase:"))
		if !ok {
			return h.rejectStep(state, chatID, "Please pick your current phase below.")
		}
		state.Advance(fieldPhase, string(phase))
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "What's your profit target in dollars? e.g. 5000")

	case regStepProfitTarget:
		target, err := parsePositiveDecimal(text)
		if err != nil {
			return h.rejectStep(state, chatID, "Please send the profit target as a positive number, e.g. 5000.")
		}
		state.Advance(fieldProfitTarget, target.String())
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.bot.SendMessage(chatID, "And your initial account balance in dollars? e.g. 100000")

	case regStepInitialBalance:
		balance, err := parsePositiveDecimal(text)
		if err != nil {
			return h.rejectStep(state, chatID, "Please send the starting balance as a positive number, e.g. 100000.")
		}
		state.Set(fieldInitialBalance, balance.String())
		return h.completeRegistration(ctx, u, state, chatID)

	default:
		return h.repos.Flows.Clear(ctx, u.ID)
	}
}

// completeRegistration copies the collected answers onto the user row and
// clears the flow in one transaction.
func (h *Handler) completeRegistration(ctx context.Context, u *user.User, state *flow.State, chatID int64) error {
	age, _ := strconv.Atoi(state.Get(fieldAge))
	years, _ := strconv.ParseFloat(state.Get(fieldTradingYears), 64)
	target, _ := decimal.NewFromString(state.Get(fieldProfitTarget))
	balance, _ := decimal.NewFromString(state.Get(fieldInitialBalance))

	u.FullName = state.Get(fieldFullName)
	u.Age = age
	u.TradingYears = years
	u.ExperienceLevel = user.ExperienceLevel(state.Get(fieldExperience))
	u.AccountType = user.AccountType(state.Get(fieldAccountType))
	u.Phase = user.Phase(state.Get(fieldPhase))
	u.ProfitTarget = target
	u.InitialBalance = balance
	u.CurrentBalance = balance
	u.RegistrationComplete = true

	err := postgres.WithinTx(ctx, h.db, func(repos *postgres.Repos) error {
		if err := repos.Users.Update(ctx, u); err != nil {
			return err
		}
		return repos.Flows.Clear(ctx, u.ID)
	})
	if err != nil {
		return errors.Wrap(err, "failed to complete registration")
	}

	metrics.RecordFlowCompleted(string(flow.FlowRegistration), "done")
	h.log.Infow("Registration completed", "user_id", u.ID, "telegram_id", u.TelegramID)

	return h.bot.SendMessage(chatID, fmt.Sprintf(
		"You're all set, %s! ✅\n\n"+
			"Account: %s\n"+
			"Starting balance: $%s\n"+
			"Profit target: $%s\n\n"+
			"Log your first trade with /journal.",
		u.FullName,
		describeAccount(u),
		formatMoney(u.InitialBalance),
		formatMoney(u.ProfitTarget)))
}

func experienceKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.NewSingleColumnKeyboard(
		[]string{"🌱 Beginner", "📈 Intermediate", "🏆 Advanced"},
		[]string{"exp:beginner", "exp:intermediate", "exp:advanced"},
	)
}

func accountTypeKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.NewSingleColumnKeyboard(
		[]string{"🧪 Demo", "💰 Live"},
		[]string{"acct:demo", "acct:live"},
	)
}

func phaseKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.NewSingleColumnKeyboard(
		[]string{"Phase 1", "Phase 2"},
		[]string{"phase:phase1", "phase:phase2"},
	)
}

func stripPrefix(s, prefix string) string {
	return strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), prefix)
}

func parsePositiveDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, errors.New("must be positive")
	}
	return d, nil
}
