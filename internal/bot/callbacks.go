package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(cb.Data, ":", 2)
	if len(parts) != 2 {
		b.answerCallback(cb.ID, "")
		return
	}
	action, operationID := parts[0], parts[1]

	b.log.Info("callback",
		"action", action,
		"operation_id", operationID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case actionNotifyOn:
		b.toggleSubscription(ctx, cb, operationID, true)
	case actionNotifyOff:
		b.toggleSubscription(ctx, cb, operationID, false)
	default:
		b.answerCallback(cb.ID, "")
	}
}

func (b *Bot) toggleSubscription(ctx context.Context, cb *tgbotapi.CallbackQuery, operationID string, enable bool) {
	if b.subs == nil {
		b.answerCallback(cb.ID, "Notifications are not available right now.")
		return
	}

	changed, err := b.subs.ToggleSubscription(ctx, operationID, cb.From.ID, enable)
	if err != nil {
		b.log.Error("toggle subscription",
			"operation_id", operationID, "user_id", cb.From.ID, "error", err)
		b.answerCallback(cb.ID, "Something went wrong, try again.")
		return
	}

	switch {
	case enable && changed:
		b.answerCallback(cb.ID, "Notifications enabled.")
	case enable:
		b.answerCallback(cb.ID, "Notifications were already enabled.")
	case changed:
		b.answerCallback(cb.ID, "Notifications disabled.")
	default:
		b.answerCallback(cb.ID, "Notifications were not enabled.")
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error("answer callback", "error", err)
	}
}
