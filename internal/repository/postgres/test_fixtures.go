package postgres

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"mentor/internal/domain/trade"
	"mentor/internal/domain/user"
)

// TestFixtures provides factory methods for creating test data
type TestFixtures struct {
	db DBTX
	t  *testing.T
}

// NewTestFixtures creates a new test fixtures factory
func NewTestFixtures(t *testing.T, db DBTX) *TestFixtures {
	t.Helper()
	return &TestFixtures{
		db: db,
		t:  t,
	}
}

// CreateUser creates a registered test user in the database
func (f *TestFixtures) CreateUser(opts ...func(*user.User)) *user.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := &user.User{
		ID:                   uuid.New(),
		TelegramID:           100000000 + rand.Int63n(900000000),
		TelegramUsername:     fmt.Sprintf("test_user_%d", rand.Intn(999999)),
		FullName:             "Test Trader",
		Age:                  30,
		TradingYears:         3,
		ExperienceLevel:      user.ExperienceIntermediate,
		AccountType:          user.AccountLive,
		Phase:                user.Phase1,
		ProfitTarget:         decimal.NewFromInt(10000),
		InitialBalance:       decimal.NewFromInt(100000),
		CurrentBalance:       decimal.NewFromInt(100000),
		RegistrationComplete: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	for _, opt := range opts {
		opt(u)
	}

	require.NoError(f.t, NewUserRepository(f.db).Create(context.Background(), u), "Failed to create test user")

	return u
}

// CreateTrade creates a test trade for the user
func (f *TestFixtures) CreateTrade(userID uuid.UUID, opts ...func(*trade.Trade)) *trade.Trade {
	f.t.Helper()

	tr := &trade.Trade{
		ID:         uuid.New(),
		UserID:     userID,
		TradeDate:  time.Now().UTC().Truncate(24 * time.Hour),
		Pair:       "EURUSD",
		Direction:  trade.DirectionLong,
		EntryPrice: decimal.RequireFromString("1.1000"),
		StopLoss:   decimal.RequireFromString("1.0950"),
		TakeProfit: decimal.RequireFromString("1.1100"),
		ExitPrice:  decimal.RequireFromString("1.1100"),
		Result:     trade.ResultWin,
		ProfitLoss: decimal.RequireFromString("0.0100"),
		Notes:      "clean breakout retest",
		CreatedAt:  time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(tr)
	}

	require.NoError(f.t, NewTradeRepository(f.db).Create(context.Background(), tr), "Failed to create test trade")

	return tr
}
