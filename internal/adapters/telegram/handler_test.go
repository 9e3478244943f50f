package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/internal/adapters/config"
	"mentor/internal/domain/trade"
	"mentor/internal/domain/user"
	"mentor/internal/repository/postgres"
	"mentor/internal/services/broadcast"
	"mentor/internal/services/journal"
	"mentor/internal/testsupport"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
	"mentor/pkg/telegram"
)

// fakeBot records outgoing messages for assertions
type fakeBot struct {
	mu        sync.Mutex
	messages  []string
	keyboards []telegram.InlineKeyboardMarkup
}

func (b *fakeBot) Start(ctx context.Context) error { return nil }
func (b *fakeBot) Stop()                           {}
func (b *fakeBot) SetHandler(func(telegram.Update)) {}
func (b *fakeBot) SendTyping(chatID int64) error   { return nil }
func (b *fakeBot) AnswerCallback(id, text string, showAlert bool) error { return nil }

func (b *fakeBot) SendMessage(chatID int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, text)
	return nil
}

func (b *fakeBot) SendMessageWithKeyboard(chatID int64, text string, keyboard telegram.InlineKeyboardMarkup) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, text)
	b.keyboards = append(b.keyboards, keyboard)
	return nil
}

func (b *fakeBot) lastMessage() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.messages) == 0 {
		return ""
	}
	return b.messages[len(b.messages)-1]
}

func (b *fakeBot) messageCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

var _ telegram.Bot = (*fakeBot)(nil)

type handlerHarness struct {
	handler    *Handler
	bot        *fakeBot
	db         *sqlx.DB
	telegramID int64
	chatID     int64
}

// newHandlerHarness wires a handler against the test database. Rows created
// through the handler are committed, so the harness deletes its user (and
// everything cascading from it) on cleanup.
func newHandlerHarness(t *testing.T) *handlerHarness {
	t.Helper()

	testDB := testsupport.NewTestPostgres(t)
	db := testDB.DB()

	telegramID := time.Now().UnixNano()

	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM users WHERE telegram_id = $1", telegramID)
	})

	bot := &fakeBot{}
	log := logger.Get()
	cfg := &config.Config{}
	cfg.Telegram.AdminIDs = []int64{telegramID + 1}

	services := Services{
		Journal:   journal.New(db, log),
		Broadcast: broadcast.New(postgres.NewRepos(db).Users, bot, log),
	}

	return &handlerHarness{
		handler:    NewHandler(bot, db, services, cfg, log),
		bot:        bot,
		db:         db,
		telegramID: telegramID,
		chatID:     telegramID,
	}
}

func (h *handlerHarness) sendText(text string) {
	h.handler.HandleUpdate(telegram.Update{
		Message: newTextMessage(h.telegramID, h.chatID, text),
	})
}

func (h *handlerHarness) sendPhoto(fileID string) {
	msg := newTextMessage(h.telegramID, h.chatID, "")
	msg.PhotoFileID = fileID
	h.handler.HandleUpdate(telegram.Update{Message: msg})
}

func (h *handlerHarness) sendCallback(data string) {
	h.handler.HandleUpdate(telegram.Update{
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb",
			From:    &telegram.User{ID: h.telegramID},
			Message: newTextMessage(h.telegramID, h.chatID, ""),
			Data:    data,
		},
	})
}

func (h *handlerHarness) user(t *testing.T) *user.User {
	t.Helper()
	u, err := postgres.NewRepos(h.db).Users.GetByTelegramID(context.Background(), h.telegramID)
	require.NoError(t, err)
	return u
}

func (h *handlerHarness) register(t *testing.T) *user.User {
	t.Helper()

	h.sendText("/start")
	h.sendText("Sarah Chen")
	h.sendText("29")
	h.sendText("3.5")
	h.sendCallback("exp:intermediate")
	h.sendCallback("acct:live")
	h.sendCallback("phase:phase1")
	h.sendText("8000")
	h.sendText("100000")

	u := h.user(t)
	require.True(t, u.RegistrationComplete)
	return u
}

func newTextMessage(telegramID, chatID int64, text string) *telegram.Message {
	msg := &telegram.Message{
		From: &telegram.User{ID: telegramID, Username: "tester"},
		Chat: &telegram.Chat{ID: chatID, Type: "private"},
		Text: text,
	}
	msg.ParseCommand()
	return msg
}

func TestRegistrationFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)

	u := h.register(t)

	assert.Equal(t, "Sarah Chen", u.FullName)
	assert.Equal(t, 29, u.Age)
	assert.InDelta(t, 3.5, u.TradingYears, 0.001)
	assert.Equal(t, user.ExperienceIntermediate, u.ExperienceLevel)
	assert.Equal(t, user.AccountLive, u.AccountType)
	assert.Equal(t, user.Phase1, u.Phase)
	assert.True(t, u.InitialBalance.Equal(u.CurrentBalance))
	assert.Contains(t, h.bot.lastMessage(), "all set")

	// Flow row is gone after completion
	_, err := postgres.NewRepos(h.db).Flows.Get(context.Background(), u.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistrationInvalidAgeDoesNotAdvance(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)

	h.sendText("/start")
	h.sendText("Sarah Chen")
	h.sendText("not a number")

	u := h.user(t)
	state, err := postgres.NewRepos(h.db).Flows.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, regStepAge, state.Step)

	// ParseFloat accepts "NaN" but the years step must not
	h.sendText("29")
	h.sendText("NaN")

	state, err = postgres.NewRepos(h.db).Flows.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, regStepTradingYears, state.Step)

	// Demo accounts skip the phase question
	h.sendText("1")
	h.sendCallback("exp:beginner")
	h.sendCallback("acct:demo")
	h.sendText("2000")
	h.sendText("10000")

	u = h.user(t)
	assert.True(t, u.RegistrationComplete)
	assert.Equal(t, user.AccountDemo, u.AccountType)
	assert.Empty(t, string(u.Phase))
}

func TestReturningUserStart(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)
	h.register(t)

	h.sendText("/start")
	assert.Contains(t, h.bot.lastMessage(), "Welcome back, Sarah Chen")
}

func TestJournalFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)
	u := h.register(t)
	balanceBefore := u.CurrentBalance

	h.sendText("/journal")
	h.sendText("2026-08-24")
	h.sendText("eurusd")
	h.sendCallback("dir:long")
	h.sendText("1.0825")
	h.sendText("1.0790")
	h.sendText("1.0900")
	h.sendText("1.0885")
	h.sendCallback("result:win")
	h.sendPhoto("AgACAgIAAxkBAAI")
	h.sendText("Clean breakout of the London range, held through retest.")

	assert.Contains(t, h.bot.lastMessage(), "Trade logged")

	trades, err := postgres.NewRepos(h.db).Trades.ListByUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	logged := trades[0]
	assert.Equal(t, "EURUSD", logged.Pair)
	assert.Equal(t, trade.DirectionLong, logged.Direction)
	assert.Equal(t, trade.ResultWin, logged.Result)
	assert.Equal(t, "AgACAgIAAxkBAAI", logged.ScreenshotFileID)
	assert.Equal(t, "2026-08-24", logged.TradeDate.Format("2006-01-02"))
	// P/L is the signed price move: 1.0885 - 1.0825
	assert.True(t, logged.ProfitLoss.Equal(decimalFromString(t, "0.006")))

	u = h.user(t)
	assert.True(t, u.CurrentBalance.Equal(balanceBefore.Add(logged.ProfitLoss)))
}

func TestJournalInvalidInputDoesNotAdvance(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)
	u := h.register(t)

	h.sendText("/journal")
	h.sendText("today")
	h.sendText("eurusd")
	h.sendCallback("dir:long")

	before := h.bot.messageCount()
	h.sendText("not a price")

	assert.Contains(t, h.bot.lastMessage(), "positive number")
	assert.Equal(t, before+1, h.bot.messageCount())

	state, err := postgres.NewRepos(h.db).Flows.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, jrnStepEntryPrice, state.Step)

	// Stop loss above entry for a long is rejected too
	h.sendText("1.0825")
	h.sendText("1.0900")
	assert.Contains(t, h.bot.lastMessage(), "below your entry")

	state, err = postgres.NewRepos(h.db).Flows.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, jrnStepStopLoss, state.Step)
}

func TestJournalBreakevenAsksExactPL(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)
	u := h.register(t)

	h.sendText("/journal")
	h.sendText("today")
	h.sendText("XAUUSD")
	h.sendCallback("dir:short")
	h.sendText("2400")
	h.sendText("2410")
	h.sendText("2380")
	h.sendText("2399.5")
	h.sendCallback("result:breakeven")

	assert.Contains(t, h.bot.lastMessage(), "exact P/L")

	h.sendText("-12.50")
	h.sendText("skip")
	h.sendText("Choked the entry, scratched it at breakeven.")

	trades, err := postgres.NewRepos(h.db).Trades.ListByUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, trade.ResultBreakeven, trades[0].Result)
	assert.True(t, trades[0].ProfitLoss.Equal(decimalFromString(t, "-12.5")))
	assert.Empty(t, trades[0].ScreenshotFileID)
}

func TestCancelClearsFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)
	u := h.register(t)

	h.sendText("/journal")
	h.sendText("/cancel")
	assert.Contains(t, h.bot.lastMessage(), "Cancelled")

	_, err := postgres.NewRepos(h.db).Flows.Get(context.Background(), u.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestIdleTextGetsHint(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)
	h.register(t)

	h.sendText("hello?")
	assert.Contains(t, h.bot.lastMessage(), "/help")
}

func TestUnregisteredCommandRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)

	h.sendText("/journal")
	assert.Contains(t, h.bot.lastMessage(), "registration")
}

func TestStatsCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newHandlerHarness(t)
	h.register(t)

	h.sendText("/stats")
	assert.Contains(t, h.bot.lastMessage(), "No trades in your journal yet")
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
