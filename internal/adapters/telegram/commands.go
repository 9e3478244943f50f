package telegram

import (
	"fmt"
	"strings"
	"time"

	"mentor/internal/domain/flow"
	"mentor/internal/domain/stats"
	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/internal/services/report"
	"mentor/pkg/errors"
	"mentor/pkg/telegram"
)

func (h *Handler) registerCommands() {
	authRequired := []telegram.CommandMiddleware{telegram.AuthRequiredMiddleware()}

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "start",
		Description: "Register or show your profile",
		Handler:     h.cmdStart,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "journal",
		Aliases:     []string{"log"},
		Description: "Log a new trade",
		Middleware:  authRequired,
		Handler:     h.cmdJournal,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "stats",
		Description: "Show your trading statistics",
		Middleware:  authRequired,
		Handler:     h.cmdStats,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "summary",
		Description: "Get an AI analysis of your trading history",
		Middleware:  authRequired,
		Handler:     h.cmdSummary,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "report",
		Description: "Get this week's performance report",
		Middleware:  authRequired,
		Handler:     h.cmdReport,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "therapy",
		Description: "Talk to the trading psychology coach",
		Middleware:  authRequired,
		Handler:     h.cmdTherapy,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "end",
		Description: "End the current therapy session",
		Middleware:  authRequired,
		Handler:     h.cmdEnd,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "broadcast",
		Description: "Send an announcement to all users",
		Hidden:      true,
		Middleware: []telegram.CommandMiddleware{
			telegram.AdminOnlyMiddleware(h.cfg.Telegram.IsAdmin),
		},
		Handler: h.cmdBroadcast,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "cancel",
		Description: "Cancel the current operation",
		Handler:     h.cmdCancel,
	})

	h.registry.MustRegister(&telegram.CommandConfig{
		Name:        "help",
		Description: "Show available commands",
		Handler:     h.cmdHelp,
	})
}

func (h *Handler) cmdStart(cmdCtx *telegram.CommandContext) error {
	ctx := cmdCtx.Ctx

	if u, ok := cmdCtx.User.(*user.User); ok {
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, fmt.Sprintf(
			"Welcome back, %s! 👋\n\nUse /journal to log a trade, /stats to see how you're doing, or /help for everything else.",
			u.FullName))
	}

	existing, err := h.getUser(ctx, cmdCtx.TelegramID)
	if err != nil {
		return err
	}

	if existing == nil {
		existing = newPendingUser(cmdCtx)
		if err := h.repos.Users.Create(ctx, existing); err != nil {
			if !errors.Is(err, errors.ErrAlreadyExists) {
				return errors.Wrap(err, "failed to create user")
			}
			if existing, err = h.getUser(ctx, cmdCtx.TelegramID); err != nil || existing == nil {
				return errors.Wrap(err, "failed to reload user")
			}
		}
	}

	state := flow.NewState(existing.ID, flow.FlowRegistration)
	if err := h.saveStep(ctx, state); err != nil {
		return err
	}

	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
		"Welcome to your trading journal! 📒\n\nLet's set up your profile. What's your full name?")
}

func newPendingUser(cmdCtx *telegram.CommandContext) *user.User {
	u := user.NewPending(cmdCtx.TelegramID)
	if cmdCtx.RawMessage != nil && cmdCtx.RawMessage.From != nil {
		u.TelegramUsername = cmdCtx.RawMessage.From.Username
	}
	return u
}

func (h *Handler) cmdJournal(cmdCtx *telegram.CommandContext) error {
	u := cmdCtx.User.(*user.User)

	state := flow.NewState(u.ID, flow.FlowJournaling)
	if err := h.saveStep(cmdCtx.Ctx, state); err != nil {
		return err
	}

	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
		"Let's log a trade. 📒\n\nWhat date was the trade? Send \"today\" or a date like 2026-08-24.")
}

func (h *Handler) cmdStats(cmdCtx *telegram.CommandContext) error {
	u := cmdCtx.User.(*user.User)

	trades, err := h.repos.Trades.ListByUser(cmdCtx.Ctx, u.ID)
	if err != nil {
		return errors.Wrap(err, "failed to load trades")
	}

	summary := stats.Compute(trades)
	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, formatStats(u, summary))
}

func (h *Handler) cmdSummary(cmdCtx *telegram.CommandContext) error {
	u := cmdCtx.User.(*user.User)

	trades, err := h.repos.Trades.ListByUser(cmdCtx.Ctx, u.ID)
	if err != nil {
		return errors.Wrap(err, "failed to load trades")
	}
	if len(trades) == 0 {
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
			"No trades yet. Log a few with /journal and I'll have something to analyze.")
	}

	_ = cmdCtx.Bot.SendTyping(cmdCtx.ChatID)

	analysis, err := h.services.Advisor.SummaryAnalysis(cmdCtx.Ctx, u, trades)
	if err != nil {
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
			"🤖 The analysis service is unavailable right now. Please try again in a few minutes.")
	}

	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, "📊 *Your Trading Analysis*\n\n"+analysis)
}

func (h *Handler) cmdReport(cmdCtx *telegram.CommandContext) error {
	u := cmdCtx.User.(*user.User)

	_ = cmdCtx.Bot.SendTyping(cmdCtx.ChatID)

	rpt, err := h.services.Report.GetOrGenerate(cmdCtx.Ctx, u, time.Now().UTC())
	if err != nil {
		if errors.Is(err, report.ErrNoTrades) {
			return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
				"No trades this week yet, so there's nothing to report. Log trades with /journal.")
		}
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
			"🤖 I couldn't generate your report right now. Please try again later.")
	}

	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, formatReport(rpt))
}

func (h *Handler) cmdTherapy(cmdCtx *telegram.CommandContext) error {
	u := cmdCtx.User.(*user.User)
	ctx := cmdCtx.Ctx

	_, resumed, err := h.services.Therapy.Start(ctx, u)
	if err != nil {
		return errors.Wrap(err, "failed to start therapy session")
	}

	state := flow.NewState(u.ID, flow.FlowTherapy)
	if err := h.saveStep(ctx, state); err != nil {
		return err
	}

	if resumed {
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
			"Picking up where we left off. What's on your mind?")
	}

	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
		"🧘 This is a safe space to talk about the mental side of trading.\n\n"+
			"Tell me what's on your mind. Send /end when you're done.")
}

func (h *Handler) cmdEnd(cmdCtx *telegram.CommandContext) error {
	u := cmdCtx.User.(*user.User)
	ctx := cmdCtx.Ctx

	ended, err := h.services.Therapy.End(ctx, u.ID)
	if err != nil {
		return errors.Wrap(err, "failed to end session")
	}

	if err := h.repos.Flows.Clear(ctx, u.ID); err != nil {
		return errors.Wrap(err, "failed to clear flow")
	}

	if !ended {
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, "No active session. Start one with /therapy.")
	}

	metrics.RecordFlowCompleted(string(flow.FlowTherapy), "done")
	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
		"Session ended. Take care of yourself, and trade well. 🙏")
}

func (h *Handler) cmdBroadcast(cmdCtx *telegram.CommandContext) error {
	u, err := h.getUser(cmdCtx.Ctx, cmdCtx.TelegramID)
	if err != nil {
		return err
	}
	if u == nil {
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, "Send /start first so I know who you are.")
	}

	// Message text may come inline or in the next message
	if args := strings.TrimSpace(cmdCtx.Args); args != "" {
		state := flow.NewState(u.ID, flow.FlowBroadcast)
		state.Advance(fieldBroadcastText, args)
		if err := h.saveStep(cmdCtx.Ctx, state); err != nil {
			return err
		}
		return h.askBroadcastConfirm(cmdCtx.ChatID, args)
	}

	state := flow.NewState(u.ID, flow.FlowBroadcast)
	if err := h.saveStep(cmdCtx.Ctx, state); err != nil {
		return err
	}

	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, "What should the announcement say?")
}

func (h *Handler) cmdCancel(cmdCtx *telegram.CommandContext) error {
	ctx := cmdCtx.Ctx

	u, err := h.getUser(ctx, cmdCtx.TelegramID)
	if err != nil {
		return err
	}
	if u == nil {
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, "Nothing to cancel.")
	}

	state, err := h.repos.Flows.Get(ctx, u.ID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, "Nothing to cancel.")
		}
		return err
	}

	if state.Flow == flow.FlowTherapy {
		if _, err := h.services.Therapy.End(ctx, u.ID); err != nil {
			return err
		}
	}

	if err := h.repos.Flows.Clear(ctx, u.ID); err != nil {
		return errors.Wrap(err, "failed to clear flow")
	}

	metrics.RecordFlowCompleted(string(state.Flow), "cancelled")
	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, "Cancelled. Use /help to see what I can do.")
}

func (h *Handler) cmdHelp(cmdCtx *telegram.CommandContext) error {
	return cmdCtx.Bot.SendMessage(cmdCtx.ChatID, h.registry.HelpText())
}
