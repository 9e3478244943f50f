// Package telegram wires incoming bot updates to commands and
// conversation flows.
package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"mentor/internal/adapters/config"
	"mentor/internal/domain/flow"
	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/internal/repository/postgres"
	"mentor/internal/services/advisory"
	"mentor/internal/services/broadcast"
	"mentor/internal/services/journal"
	"mentor/internal/services/report"
	"mentor/internal/services/therapy"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
	"mentor/pkg/telegram"
)

const handleTimeout = 90 * time.Second

// Services bundles everything the handler calls into
type Services struct {
	Journal   *journal.Service
	Therapy   *therapy.Service
	Report    *report.Service
	Broadcast *broadcast.Service
	Advisor   *advisory.Advisor
}

// Handler routes updates: commands through the registry, everything else
// into the user's active conversation flow.
type Handler struct {
	bot      telegram.Bot
	registry *telegram.CommandRegistry
	db       *sqlx.DB
	repos    *postgres.Repos
	services Services
	cfg      *config.Config
	log      *logger.Logger

	// Per-user locks serialize update processing so rapid messages
	// cannot interleave flow steps.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewHandler creates the update handler and registers all commands
func NewHandler(bot telegram.Bot, db *sqlx.DB, services Services, cfg *config.Config, log *logger.Logger) *Handler {
	h := &Handler{
		bot:      bot,
		registry: telegram.NewCommandRegistry(log),
		db:       db,
		repos:    postgres.NewRepos(db),
		services: services,
		cfg:      cfg,
		log:      log.With("component", "telegram_handler"),
		locks:    make(map[int64]*sync.Mutex),
	}

	h.registry.Use(
		telegram.RecoveryMiddleware(log),
		telegram.LoggingMiddleware(log),
		telegram.MetricsMiddleware(metrics.RecordCommand),
	)
	h.registerCommands()

	return h
}

// HandleUpdate is the entry point given to the bot client
func (h *Handler) HandleUpdate(update telegram.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch {
	case update.HasCallback():
		h.handleCallback(ctx, update.CallbackQuery)
	case update.HasMessage():
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.Chat == nil || msg.From.IsBot {
		return
	}

	unlock := h.lockUser(msg.From.ID)
	defer unlock()

	if msg.IsCommand {
		h.dispatchCommand(ctx, msg)
		return
	}

	h.dispatchFlowInput(ctx, msg.From, msg.Chat.ID, flowInput{
		Text:        msg.Text,
		PhotoFileID: msg.PhotoFileID,
	})
}

func (h *Handler) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}

	unlock := h.lockUser(cb.From.ID)
	defer unlock()

	if err := h.bot.AnswerCallback(cb.ID, "", false); err != nil {
		h.log.Debugw("Failed to answer callback", "error", err)
	}

	h.dispatchFlowInput(ctx, cb.From, cb.Message.Chat.ID, flowInput{
		Text:     cb.Data,
		Callback: true,
	})
}

func (h *Handler) dispatchCommand(ctx context.Context, msg *telegram.Message) {
	u, err := h.getUser(ctx, msg.From.ID)
	if err != nil {
		h.log.Errorw("Failed to load user", "telegram_id", msg.From.ID, "error", err)
		_ = h.bot.SendMessage(msg.Chat.ID, "❌ Something went wrong. Please try again later.")
		return
	}

	cmdCtx := &telegram.CommandContext{
		Ctx:        ctx,
		TelegramID: msg.From.ID,
		ChatID:     msg.Chat.ID,
		Command:    msg.Command,
		Args:       msg.Arguments,
		RawMessage: msg,
		Bot:        h.bot,
	}
	// Commands guarded by AuthRequiredMiddleware see only fully
	// registered users; /start handles the rest itself.
	if u != nil && u.RegistrationComplete {
		cmdCtx.User = u
	}

	// Errors are already reported to the user by the registry
	_ = h.registry.Handle(cmdCtx)
}

// flowInput is one unit of non-command user input
type flowInput struct {
	Text        string
	PhotoFileID string
	Callback    bool
}

func (h *Handler) dispatchFlowInput(ctx context.Context, from *telegram.User, chatID int64, input flowInput) {
	u, err := h.getUser(ctx, from.ID)
	if err != nil {
		h.log.Errorw("Failed to load user", "telegram_id", from.ID, "error", err)
		_ = h.bot.SendMessage(chatID, "❌ Something went wrong. Please try again later.")
		return
	}
	if u == nil {
		_ = h.bot.SendMessage(chatID, "Welcome! Send /start to set up your trading journal.")
		return
	}

	state, err := h.repos.Flows.Get(ctx, u.ID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			h.handleIdleInput(ctx, u, chatID)
			return
		}
		h.log.Errorw("Failed to load flow state", "user_id", u.ID, "error", err)
		_ = h.bot.SendMessage(chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	var flowErr error
	switch state.Flow {
	case flow.FlowRegistration:
		flowErr = h.handleRegistrationStep(ctx, u, state, chatID, input)
	case flow.FlowJournaling:
		flowErr = h.handleJournalStep(ctx, u, state, chatID, input)
	case flow.FlowTherapy:
		flowErr = h.handleTherapyMessage(ctx, u, chatID, input)
	case flow.FlowBroadcast:
		flowErr = h.handleBroadcastStep(ctx, u, state, chatID, input)
	default:
		flowErr = h.repos.Flows.Clear(ctx, u.ID)
	}

	if flowErr != nil {
		metrics.RecordFlowStep(string(state.Flow), "error")
		h.log.Errorw("Flow step failed",
			"user_id", u.ID, "flow", state.Flow, "step", state.Step, "error", flowErr)
		_ = h.bot.SendMessage(chatID, "❌ Something went wrong. Please try again.")
	}
}

// handleIdleInput answers free text from users with no active flow
func (h *Handler) handleIdleInput(ctx context.Context, u *user.User, chatID int64) {
	if !u.RegistrationComplete {
		_ = h.bot.SendMessage(chatID, "Your registration is not finished. Send /start to continue.")
		return
	}
	_ = h.bot.SendMessage(chatID,
		"I didn't catch that. Use /journal to log a trade, /stats for your numbers, or /help for all commands.")
}

// getUser resolves the sender, returning nil without error when unknown
func (h *Handler) getUser(ctx context.Context, telegramID int64) (*user.User, error) {
	u, err := h.repos.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (h *Handler) lockUser(telegramID int64) func() {
	h.mu.Lock()
	lock, ok := h.locks[telegramID]
	if !ok {
		lock = &sync.Mutex{}
		h.locks[telegramID] = lock
	}
	h.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// saveStep persists the advanced state; the upsert is a single statement
// so a crash between reply and save re-asks the current question at worst
func (h *Handler) saveStep(ctx context.Context, state *flow.State) error {
	if err := h.repos.Flows.Save(ctx, state); err != nil {
		return errors.Wrap(err, "failed to save flow state")
	}
	metrics.RecordFlowStep(string(state.Flow), "advanced")
	return nil
}

// rejectStep re-prompts without advancing
func (h *Handler) rejectStep(state *flow.State, chatID int64, text string) error {
	metrics.RecordFlowStep(string(state.Flow), "rejected")
	return h.bot.SendMessage(chatID, text)
}
