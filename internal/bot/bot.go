// Package bot implements the Telegram surface: command handlers, the
// subscription buttons, and the message-sink capability consumed by the
// notification dispatcher.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"orbat_bot/internal/config"
	"orbat_bot/internal/model"
	"orbat_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Source provides the operation listing for the /operations command.
type Source interface {
	Operations(ctx context.Context) ([]model.Operation, error)
}

// Subscriptions toggles a user's mention-ping membership for an
// operation, reporting whether membership actually changed.
type Subscriptions interface {
	ToggleSubscription(ctx context.Context, operationID string, userID int64, enable bool) (bool, error)
}

// Bot is the Telegram bot that handles user commands and implements the
// Messenger capability for the dispatcher and reminder scheduler.
type Bot struct {
	api    telegramAPI
	store  storage.Storage
	cfg    *config.Config
	source Source
	subs   Subscriptions
	log    *slog.Logger

	// contents mirrors the text of messages this process sent, because
	// the Bot API cannot read messages back. Used to answer
	// MessageContent and to suppress no-op edits.
	mu       sync.Mutex
	contents map[int]string
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, source Source, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		store:    store,
		cfg:      cfg,
		source:   source,
		log:      log,
		contents: make(map[int]string),
	}, nil
}

// SetSubscriptions wires in the subscription toggler. It is attached
// after construction because the dispatcher consumes the bot's Messenger
// side.
func (b *Bot) SetSubscriptions(subs Subscriptions) {
	b.subs = subs
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send reply", "chat_id", chatID, "error", err)
	}
}
