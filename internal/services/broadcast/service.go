// Package broadcast fans a message out to every registered user.
package broadcast

import (
	"context"

	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/pkg/logger"
	"mentor/pkg/telegram"
)

// Result summarizes one fan-out run
type Result struct {
	Delivered int
	Failed    int
}

// Service sends admin announcements to all registered users
type Service struct {
	users user.Repository
	bot   telegram.Bot
	log   *logger.Logger
}

// New creates the broadcast service
func New(users user.Repository, bot telegram.Bot, log *logger.Logger) *Service {
	return &Service{users: users, bot: bot, log: log.With("component", "broadcast")}
}

// Send delivers text to every registration_complete user. The bot client's
// rate limiter paces the sends. Per-recipient failures are logged and
// counted, never fatal.
func (s *Service) Send(ctx context.Context, text string) (Result, error) {
	recipients, err := s.users.ListRegistered(ctx)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, recipient := range recipients {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if err := s.bot.SendMessage(recipient.TelegramID, text); err != nil {
			result.Failed++
			metrics.RecordBroadcastDelivery(false)
			s.log.Warnw("Broadcast delivery failed",
				"telegram_id", recipient.TelegramID, "error", err)
			continue
		}

		result.Delivered++
		metrics.RecordBroadcastDelivery(true)
	}

	s.log.Infow("Broadcast finished",
		"recipients", len(recipients),
		"delivered", result.Delivered,
		"failed", result.Failed)

	return result, nil
}
