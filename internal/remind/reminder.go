// Package remind fires one-shot direct reminders ahead of an operation's
// release or start time.
package remind

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orbat_bot/internal/config"
	"orbat_bot/internal/model"
	"orbat_bot/internal/notify"
	"orbat_bot/internal/storage"
)

// Source provides the operation listing. Reminders never need the
// per-operation detail pages.
type Source interface {
	Operations(ctx context.Context) ([]model.Operation, error)
}

// Sender delivers direct messages to users.
type Sender interface {
	CreateMessage(chatID int64, text string, operationID string) (int, error)
}

// Reminder scans registrations against upcoming release/start times.
// Delivery is at-least-once: no fired-marker is persisted, so a tick
// firing twice inside one window can duplicate a reminder.
type Reminder struct {
	source  Source
	store   storage.Storage
	sender  Sender
	log     *slog.Logger
	baseURL string
	window  time.Duration
	now     func() time.Time
}

// New creates a Reminder with the configured firing window.
func New(source Source, store storage.Storage, sender Sender, cfg *config.Config, log *slog.Logger) *Reminder {
	return &Reminder{
		source:  source,
		store:   store,
		sender:  sender,
		log:     log,
		baseURL: cfg.BaseURL,
		window:  cfg.RemindWindow,
		now:     time.Now,
	}
}

// Check runs one reminder tick: for every (operation, registration) pair
// with matching area and the requested timestamp present, a reminder is
// sent when the advance-adjusted instant falls inside the window.
func (r *Reminder) Check(ctx context.Context) error {
	ops, err := r.source.Operations(ctx)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}

	regs, err := r.store.ListReminders(ctx)
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	if len(regs) == 0 {
		return nil
	}

	now := r.now()
	for _, op := range ops {
		for _, reg := range regs {
			if reg.Area != op.Area {
				continue
			}
			ts := timestampFor(op, reg.Kind)
			if ts == nil {
				continue
			}

			until := ts.Add(-time.Duration(reg.AdvanceMinutes) * time.Minute).Sub(now)
			if until <= 0 || until > r.window {
				continue
			}

			text := notify.FormatReminder(op, reg, r.baseURL)
			if _, err := r.sender.CreateMessage(reg.UserID, text, ""); err != nil {
				r.log.Error("send reminder",
					"user_id", reg.UserID, "operation_id", op.ID, "error", err)
				continue
			}
			r.log.Info("reminder sent",
				"user_id", reg.UserID, "operation_id", op.ID, "kind", string(reg.Kind))
		}
	}
	return nil
}

func timestampFor(op model.Operation, kind model.ReminderKind) *time.Time {
	if kind == model.RemindStart {
		return op.Start
	}
	return op.Release
}
