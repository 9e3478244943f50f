package telegram

import (
	"context"
	"strings"

	"mentor/internal/domain/user"
	"mentor/pkg/errors"
)

// handleTherapyMessage forwards free text to the coaching session
func (h *Handler) handleTherapyMessage(ctx context.Context, u *user.User, chatID int64, input flowInput) error {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return h.bot.SendMessage(chatID, "I'm listening. Tell me what's going on.")
	}

	session, _, err := h.services.Therapy.Start(ctx, u)
	if err != nil {
		return errors.Wrap(err, "failed to load session")
	}

	_ = h.bot.SendTyping(chatID)

	reply, err := h.services.Therapy.HandleTurn(ctx, u, session, text)
	if err != nil {
		// Session and flow stay open so the user can just resend
		return h.bot.SendMessage(chatID,
			"🤖 I'm having trouble connecting right now. Give me a moment and try again, or /end the session.")
	}

	return h.bot.SendMessage(chatID, reply)
}
