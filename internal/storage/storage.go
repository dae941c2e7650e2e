// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"orbat_bot/internal/model"
)

// Storage is the interface for all persistence operations.
//
// A notification-state row exists for every operation seen in the listing;
// GetNotificationState returns nil (no error) for operations never seen.
// All watch-tick writes go through ApplyTick so a tick is all-or-nothing.
type Storage interface {
	ListTrackedOperations(ctx context.Context) ([]string, error)
	GetNotificationState(ctx context.Context, operationID string) (*model.NotificationState, error)
	ApplyTick(ctx context.Context, states []*model.NotificationState, removed []string) error

	AddSubscriber(ctx context.Context, operationID string, userID int64) (bool, error)
	RemoveSubscriber(ctx context.Context, operationID string, userID int64) (bool, error)

	ReplaceReminder(ctx context.Context, reg model.ReminderRegistration) error
	DeleteReminder(ctx context.Context, kind model.ReminderKind, area model.Area, userID int64) error
	ListReminders(ctx context.Context) ([]model.ReminderRegistration, error)
	ListUserReminders(ctx context.Context, userID int64) ([]model.ReminderRegistration, error)

	AddGameMember(ctx context.Context, game string, userID int64) (bool, error)
	RemoveGameMember(ctx context.Context, game string, userID int64) (bool, error)
	ListGameMembers(ctx context.Context, game string) ([]int64, error)

	Close() error
}
