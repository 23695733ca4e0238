package jobs

import (
	"log/slog"

	"github.com/kasirpos/backend/internal/services"
	"github.com/robfig/cron/v3"
)

// StartSweeper schedules the daily subscription sweeps: overdue subscriptions
// transition to EXPIRED, then expiring ones get their reminders. Both sweeps
// are idempotent, so an overlapping manual trigger is harmless.
func StartSweeper(subs *services.SubscriptionService) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("10 0 * * *", func() {
		expired, err := subs.ExpireOverdue()
		if err != nil {
			slog.Error("expiry sweep failed", "action", "expiry_sweep", "error", err.Error())
			return
		}
		slog.Info("expiry sweep completed", "expired", expired)
	})
	if err != nil {
		slog.Error("failed to schedule expiry sweep", "error", err.Error())
	}

	_, err = c.AddFunc("0 8 * * *", func() {
		sent, err := subs.SendReminders()
		if err != nil {
			slog.Error("reminder sweep failed", "action", "reminder_sweep", "error", err.Error())
			return
		}
		if sent > 0 {
			slog.Info("reminder sweep completed", "sent", sent)
		}
	})
	if err != nil {
		slog.Error("failed to schedule reminder sweep", "error", err.Error())
	}

	c.Start()
	return c
}
