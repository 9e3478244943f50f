package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"mentor/internal/domain/report"
	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
	"mentor/pkg/telegram"
)

// ReportCron generates and delivers weekly reports on a cron schedule.
// It is cron-driven rather than interval-driven, so it runs beside the
// Scheduler instead of inside it.
type ReportCron struct {
	cron     *cron.Cron
	schedule string
	svc      reportGenerator
	users    user.Repository
	bot      telegram.Bot
	log      *logger.Logger
}

type reportGenerator interface {
	GenerateForAll(ctx context.Context, users []*user.User, at time.Time, deliver func(*user.User, *report.WeeklyReport)) int
}

// NewReportCron creates the weekly report worker
func NewReportCron(schedule string, svc reportGenerator, users user.Repository, bot telegram.Bot, log *logger.Logger) *ReportCron {
	return &ReportCron{
		cron:     cron.New(),
		schedule: schedule,
		svc:      svc,
		users:    users,
		bot:      bot,
		log:      log.With("worker", "report_cron"),
	}
}

// Start schedules the job. The schedule is a standard 5-field cron expression.
func (w *ReportCron) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.runOnce); err != nil {
		return errors.Wrapf(err, "invalid report schedule %q", w.schedule)
	}

	w.cron.Start()
	w.log.Infow("Report cron started", "schedule", w.schedule)
	return nil
}

// Stop halts the cron and waits for a running job to finish
func (w *ReportCron) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *ReportCron) runOnce() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	err := w.generateAll(ctx)
	metrics.RecordWorkerExecution("report_cron", time.Since(start), err)
	if err != nil {
		w.log.Errorw("Weekly report run failed", "error", err)
	}
}

// generateAll builds this week's report for every registered user and
// delivers it. Users without trades are skipped; an existing report for
// the week is left alone.
func (w *ReportCron) generateAll(ctx context.Context) error {
	registered, err := w.users.ListRegistered(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list users")
	}

	generated := w.svc.GenerateForAll(ctx, registered, time.Now().UTC(), func(u *user.User, rpt *report.WeeklyReport) {
		if err := w.bot.SendMessage(u.TelegramID, formatWeekly(rpt)); err != nil {
			w.log.Warnw("Failed to deliver report", "telegram_id", u.TelegramID, "error", err)
		}
	})

	w.log.Infow("Weekly report run finished", "users", len(registered), "generated", generated)
	return ctx.Err()
}

func formatWeekly(r *report.WeeklyReport) string {
	return fmt.Sprintf(
		"🗓 *Your Weekly Report: %s – %s*\n\n"+
			"Trades: %d (✅ %d  ❌ %d  ➖ %d)\n"+
			"Win rate: %.2f%%\n"+
			"Net P/L: %s\n\n%s",
		r.WeekStart.Format("Jan 2"),
		r.WeekEnd.Format("Jan 2, 2006"),
		r.TotalTrades, r.Wins, r.Losses, r.Breakevens,
		r.WinRate,
		r.NetProfitLoss.StringFixed(2),
		r.Narrative)
}
