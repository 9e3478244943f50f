package telegram

import (
	"time"

	"mentor/pkg/logger"
)

// LoggingMiddleware logs each command invocation with timing
func LoggingMiddleware(log *logger.Logger) CommandMiddleware {
	return func(next CommandHandler) CommandHandler {
		return func(cmdCtx *CommandContext) error {
			start := time.Now()

			log.Debugw("Command received",
				"command", cmdCtx.Command,
				"telegram_id", cmdCtx.TelegramID,
				"args", cmdCtx.Args)

			err := next(cmdCtx)

			fields := []interface{}{
				"command", cmdCtx.Command,
				"telegram_id", cmdCtx.TelegramID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				fields = append(fields, "error", err)
				log.Warnw("Command failed", fields...)
			} else {
				log.Infow("Command handled", fields...)
			}

			return err
		}
	}
}

// RecoveryMiddleware converts handler panics into user-facing errors
func RecoveryMiddleware(log *logger.Logger) CommandMiddleware {
	return func(next CommandHandler) CommandHandler {
		return func(cmdCtx *CommandContext) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Errorw("Command handler panicked",
						"command", cmdCtx.Command,
						"telegram_id", cmdCtx.TelegramID,
						"panic", r)

					_ = cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
						"❌ An unexpected error occurred. Please try again.")
					err = nil
				}
			}()

			return next(cmdCtx)
		}
	}
}

// AuthRequiredMiddleware rejects commands from users who have not completed
// registration. The User field is populated by the dispatcher before routing.
func AuthRequiredMiddleware() CommandMiddleware {
	return func(next CommandHandler) CommandHandler {
		return func(cmdCtx *CommandContext) error {
			if cmdCtx.User == nil {
				return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
					"Please complete registration first. Send /start to begin.")
			}
			return next(cmdCtx)
		}
	}
}

// AdminOnlyMiddleware restricts a command to admins.
// checkAdmin decides by telegram ID.
func AdminOnlyMiddleware(checkAdmin func(telegramID int64) bool) CommandMiddleware {
	return func(next CommandHandler) CommandHandler {
		return func(cmdCtx *CommandContext) error {
			if !checkAdmin(cmdCtx.TelegramID) {
				return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
					"❌ This command is restricted.")
			}
			return next(cmdCtx)
		}
	}
}

// MetricsMiddleware records command counts and durations
func MetricsMiddleware(record func(command string, duration time.Duration, err error)) CommandMiddleware {
	return func(next CommandHandler) CommandHandler {
		return func(cmdCtx *CommandContext) error {
			start := time.Now()
			err := next(cmdCtx)
			record(cmdCtx.Command, time.Since(start), err)
			return err
		}
	}
}
