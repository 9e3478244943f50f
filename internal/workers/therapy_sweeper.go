package workers

import (
	"context"
	"time"

	"mentor/internal/domain/user"
	"mentor/internal/services/therapy"
	"mentor/pkg/telegram"
)

// TherapySweeper closes coaching sessions that went quiet and tells
// their owners the session ended.
type TherapySweeper struct {
	*BaseWorker
	svc   *therapy.Service
	users user.Repository
	bot   telegram.Bot
}

// NewTherapySweeper creates the idle session sweeper
func NewTherapySweeper(svc *therapy.Service, users user.Repository, bot telegram.Bot, interval time.Duration) *TherapySweeper {
	return &TherapySweeper{
		BaseWorker: NewBaseWorker("therapy_sweeper", interval, true),
		svc:        svc,
		users:      users,
		bot:        bot,
	}
}

// Run closes idle sessions and notifies their owners
func (w *TherapySweeper) Run(ctx context.Context) error {
	closed, err := w.svc.CloseIdle(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	for _, session := range closed {
		owner, err := w.users.GetByID(ctx, session.UserID)
		if err != nil {
			w.Log().Warnw("Cannot notify session owner",
				"session_id", session.ID, "user_id", session.UserID, "error", err)
			continue
		}

		if err := w.bot.SendMessage(owner.TelegramID,
			"🧘 Our session timed out after some quiet time, so I've closed it. "+
				"Come back any time with /therapy."); err != nil {
			w.Log().Warnw("Failed to send session timeout notice",
				"telegram_id", owner.TelegramID, "error", err)
		}
	}

	return nil
}
