// Package notify turns roster diffs and subscriber state into channel
// messages, tracking one status message and a set of transient ping
// messages per operation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orbat_bot/internal/config"
	"orbat_bot/internal/diff"
	"orbat_bot/internal/model"
	"orbat_bot/internal/storage"
)

// Source provides parsed roster pages.
type Source interface {
	Operations(ctx context.Context) ([]model.Operation, error)
	Operation(ctx context.Context, id string) (*model.ExtendedOperation, error)
}

// Messenger is the message-sink capability the dispatcher consumes.
// A non-empty operationID asks the implementation to attach the
// subscription controls for that operation.
type Messenger interface {
	CreateMessage(chatID int64, text string, operationID string) (int, error)
	EditMessage(chatID int64, messageID int, text string, operationID string) error
	DeleteMessage(chatID int64, messageID int) error
	MessageContent(chatID int64, messageID int) (string, error)
}

// Dispatcher owns the per-operation notification state machine:
// untracked -> tracked (main message created) -> updated in place ->
// retired when the operation leaves the listing.
type Dispatcher struct {
	source    Source
	store     storage.Storage
	messenger Messenger
	log       *slog.Logger
	channelID int64
	baseURL   string
	lookahead time.Duration
	now       func() time.Time
}

// New creates a Dispatcher posting to the configured channel.
func New(source Source, store storage.Storage, messenger Messenger, cfg *config.Config, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		source:    source,
		store:     store,
		messenger: messenger,
		log:       log,
		channelID: cfg.ChannelID,
		baseURL:   cfg.BaseURL,
		lookahead: cfg.ReleaseLookahead,
		now:       time.Now,
	}
}

// Sync runs one watch tick: poll the listing, retire operations that
// disappeared, diff every listed operation against its snapshot, send or
// retire messages, and persist the whole tick in one transaction.
//
// Connector and storage failures abort the tick before anything is
// written; message-sink failures are logged and skipped.
func (d *Dispatcher) Sync(ctx context.Context) error {
	ops, err := d.source.Operations(ctx)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	if len(ops) == 0 {
		d.log.Warn("listing is empty, skipping sync")
		return nil
	}

	tracked, err := d.store.ListTrackedOperations(ctx)
	if err != nil {
		return fmt.Errorf("list tracked operations: %w", err)
	}

	listed := make(map[string]bool, len(ops))
	for _, op := range ops {
		listed[op.ID] = true
	}

	var removed []string
	for _, id := range tracked {
		if listed[id] {
			continue
		}
		if err := d.retire(ctx, id); err != nil {
			return err
		}
		removed = append(removed, id)
	}

	states := make([]*model.NotificationState, 0, len(ops))
	for _, op := range ops {
		state, err := d.syncOperation(ctx, op)
		if err != nil {
			return err
		}
		states = append(states, state)
	}

	if err := d.store.ApplyTick(ctx, states, removed); err != nil {
		return fmt.Errorf("persist tick: %w", err)
	}
	return nil
}

// retire deletes the messages of an operation that left the listing.
// Message deletions are best-effort; the messages may already be gone.
func (d *Dispatcher) retire(ctx context.Context, operationID string) error {
	state, err := d.store.GetNotificationState(ctx, operationID)
	if err != nil {
		return fmt.Errorf("load state for %s: %w", operationID, err)
	}
	if state == nil {
		return nil
	}

	if state.MainMessageID != nil {
		if err := d.messenger.DeleteMessage(d.channelID, *state.MainMessageID); err != nil {
			d.log.Warn("delete main message", "operation_id", operationID, "error", err)
		}
	}
	for _, ping := range state.Pings {
		if err := d.messenger.DeleteMessage(d.channelID, ping.MessageID); err != nil {
			d.log.Warn("delete ping message", "operation_id", operationID, "slot_id", ping.SlotID, "error", err)
		}
	}

	d.log.Info("operation retired", "operation_id", operationID)
	return nil
}

func (d *Dispatcher) syncOperation(ctx context.Context, op model.Operation) (*model.NotificationState, error) {
	ext, err := d.source.Operation(ctx, op.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch operation %s: %w", op.ID, err)
	}

	state, err := d.store.GetNotificationState(ctx, op.ID)
	if err != nil {
		return nil, fmt.Errorf("load state for %s: %w", op.ID, err)
	}
	if state == nil {
		// First sighting: the baseline snapshot is taken before any
		// comparison, so nothing that is already open fires a ping.
		state = &model.NotificationState{
			OperationID: op.ID,
			Snapshot:    diff.Snapshot(ext.Slots),
		}
		d.log.Info("operation sighted", "operation_id", op.ID, "name", op.Name)
	}

	if d.shouldTrack(ext.Operation) {
		d.updateMessages(ext, state)
	}

	state.Snapshot = diff.Snapshot(ext.Slots)
	return state, nil
}

// shouldTrack reports whether the operation is worth messaging about:
// its roster is released, or releases within the lookahead window.
func (d *Dispatcher) shouldTrack(op model.Operation) bool {
	return op.Release == nil || op.Release.Before(d.now().Add(d.lookahead))
}

func (d *Dispatcher) updateMessages(ext *model.ExtendedOperation, state *model.NotificationState) {
	content := FormatStatus(ext, state.Subscribers, d.baseURL, d.now())

	if state.MainMessageID == nil {
		id, err := d.messenger.CreateMessage(d.channelID, content, ext.ID)
		if err != nil {
			d.log.Error("create main message", "operation_id", ext.ID, "error", err)
			return
		}
		state.MainMessageID = &id
		d.log.Info("main message created", "operation_id", ext.ID, "message_id", id)
	} else {
		prev, err := d.messenger.MessageContent(d.channelID, *state.MainMessageID)
		if err != nil || prev != content {
			if err := d.messenger.EditMessage(d.channelID, *state.MainMessageID, content, ext.ID); err != nil {
				d.log.Error("edit main message", "operation_id", ext.ID, "error", err)
			}
		}
	}

	res := diff.Compare(state.Snapshot, ext.Slots)

	filled := make(map[string]bool, len(res.Filled))
	for _, slot := range res.Filled {
		filled[slot.ID] = true
	}
	if len(filled) > 0 {
		kept := state.Pings[:0]
		for _, ping := range state.Pings {
			if !filled[ping.SlotID] {
				kept = append(kept, ping)
				continue
			}
			if err := d.messenger.DeleteMessage(d.channelID, ping.MessageID); err != nil {
				d.log.Warn("delete ping message", "operation_id", ext.ID, "slot_id", ping.SlotID, "error", err)
			}
		}
		state.Pings = kept
	}

	for _, slot := range res.Opened {
		text := FormatPing(ext, slot, state.Subscribers, d.baseURL)
		id, err := d.messenger.CreateMessage(d.channelID, text, "")
		if err != nil {
			d.log.Error("send ping message", "operation_id", ext.ID, "slot_id", slot.ID, "error", err)
			continue
		}
		state.Pings = append(state.Pings, model.PingMessage{MessageID: id, SlotID: slot.ID})
		d.log.Info("slot opened", "operation_id", ext.ID, "slot_id", slot.ID)
	}
}

// ToggleSubscription enables or disables mention pings for a user on one
// operation. Both directions are idempotent; only an actual membership
// change re-renders the main message. Reports whether membership changed.
func (d *Dispatcher) ToggleSubscription(ctx context.Context, operationID string, userID int64, enable bool) (bool, error) {
	var changed bool
	var err error
	if enable {
		changed, err = d.store.AddSubscriber(ctx, operationID, userID)
	} else {
		changed, err = d.store.RemoveSubscriber(ctx, operationID, userID)
	}
	if err != nil {
		return false, fmt.Errorf("update subscription: %w", err)
	}
	if !changed {
		return false, nil
	}

	d.refreshMainMessage(ctx, operationID)
	return true, nil
}

func (d *Dispatcher) refreshMainMessage(ctx context.Context, operationID string) {
	state, err := d.store.GetNotificationState(ctx, operationID)
	if err != nil {
		d.log.Warn("load state for refresh", "operation_id", operationID, "error", err)
		return
	}
	if state == nil || state.MainMessageID == nil {
		return
	}

	ext, err := d.source.Operation(ctx, operationID)
	if err != nil {
		d.log.Warn("fetch operation for refresh", "operation_id", operationID, "error", err)
		return
	}

	content := FormatStatus(ext, state.Subscribers, d.baseURL, d.now())
	if err := d.messenger.EditMessage(d.channelID, *state.MainMessageID, content, operationID); err != nil {
		d.log.Error("refresh main message", "operation_id", operationID, "error", err)
	}
}
