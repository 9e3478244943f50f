package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExperienceLevel describes how long a trader has been in the markets
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// AccountType describes the kind of account the user trades on
type AccountType string

const (
	AccountDemo AccountType = "demo"
	AccountLive AccountType = "live"
)

// Phase is the evaluation phase for live (funded) accounts
type Phase string

const (
	Phase1 Phase = "phase1"
	Phase2 Phase = "phase2"
)

// User represents a registered Telegram user of the journal bot
type User struct {
	ID               uuid.UUID       `db:"id"`
	TelegramID       int64           `db:"telegram_id"`
	TelegramUsername string          `db:"telegram_username"`
	FullName         string          `db:"full_name"`
	Age              int             `db:"age"`
	TradingYears     float64         `db:"trading_years"`
	ExperienceLevel  ExperienceLevel `db:"experience_level"`
	AccountType      AccountType     `db:"account_type"`
	Phase            Phase           `db:"phase"` // empty for demo accounts
	ProfitTarget     decimal.Decimal `db:"profit_target"`
	InitialBalance   decimal.Decimal `db:"initial_balance"`
	CurrentBalance   decimal.Decimal `db:"current_balance"`

	RegistrationComplete bool      `db:"registration_complete"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// NewPending creates a user row for someone who just sent /start.
// The profile fields fill in as registration progresses.
func NewPending(telegramID int64) *User {
	now := time.Now().UTC()
	return &User{
		ID:         uuid.New(),
		TelegramID: telegramID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ParseExperienceLevel validates user input against the known levels
func ParseExperienceLevel(s string) (ExperienceLevel, bool) {
	switch ExperienceLevel(s) {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
		return ExperienceLevel(s), true
	}
	return "", false
}

// ParseAccountType validates user input against the known account types
func ParseAccountType(s string) (AccountType, bool) {
	switch AccountType(s) {
	case AccountDemo, AccountLive:
		return AccountType(s), true
	}
	return "", false
}

// ParsePhase validates user input against the known phases
func ParsePhase(s string) (Phase, bool) {
	switch Phase(s) {
	case Phase1, Phase2:
		return Phase(s), true
	}
	return "", false
}

// ApplyTradeResult moves the running balance by the trade's signed P/L
func (u *User) ApplyTradeResult(profitLoss decimal.Decimal) {
	if u.CurrentBalance.IsZero() && !u.InitialBalance.IsZero() {
		u.CurrentBalance = u.InitialBalance
	}
	u.CurrentBalance = u.CurrentBalance.Add(profitLoss)
}
