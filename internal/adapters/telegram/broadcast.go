package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"mentor/internal/domain/flow"
	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/pkg/telegram"
)

// Broadcast steps
const (
	bcStepText = iota
	bcStepConfirm
)

const fieldBroadcastText = "text"

func (h *Handler) handleBroadcastStep(ctx context.Context, u *user.User, state *flow.State, chatID int64, input flowInput) error {
	// The flow only ever starts from the admin-gated command, but the
	// allow-list could have changed since.
	if !h.cfg.Telegram.IsAdmin(u.TelegramID) {
		return h.repos.Flows.Clear(ctx, u.ID)
	}

	text := strings.TrimSpace(input.Text)

	switch state.Step {
	case bcStepText:
		if text == "" {
			return h.rejectStep(state, chatID, "Send the announcement text as a plain message.")
		}
		state.Advance(fieldBroadcastText, text)
		if err := h.saveStep(ctx, state); err != nil {
			return err
		}
		return h.askBroadcastConfirm(chatID, text)

	case bcStepConfirm:
		switch stripPrefix(text, "bc:") {
		case "yes":
			if err := h.repos.Flows.Clear(ctx, u.ID); err != nil {
				return err
			}
			metrics.RecordFlowCompleted(string(flow.FlowBroadcast), "done")

			result, err := h.services.Broadcast.Send(ctx, state.Get(fieldBroadcastText))
			if err != nil {
				return err
			}
			return h.bot.SendMessage(chatID, fmt.Sprintf(
				"Broadcast sent to %s users (%s failed).",
				humanize.Comma(int64(result.Delivered)),
				humanize.Comma(int64(result.Failed))))

		case "no":
			if err := h.repos.Flows.Clear(ctx, u.ID); err != nil {
				return err
			}
			metrics.RecordFlowCompleted(string(flow.FlowBroadcast), "cancelled")
			return h.bot.SendMessage(chatID, "Broadcast discarded.")

		default:
			return h.rejectStep(state, chatID, "Please confirm with the buttons below.")
		}

	default:
		return h.repos.Flows.Clear(ctx, u.ID)
	}
}

func (h *Handler) askBroadcastConfirm(chatID int64, text string) error {
	return h.bot.SendMessageWithKeyboard(chatID,
		fmt.Sprintf("Send this to all registered users?\n\n%s", text),
		telegram.NewInlineKeyboard(telegram.NewButtonRow(
			telegram.NewCallbackButton("✅ Send it", "bc:yes"),
			telegram.NewCallbackButton("✋ Discard", "bc:no"),
		)))
}
