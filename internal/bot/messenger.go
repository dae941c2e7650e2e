package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback actions carried in the inline subscription buttons.
const (
	actionNotifyOn  = "notify_on"
	actionNotifyOff = "notify_off"
)

func subscriptionKeyboard(operationID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Enable notifications", actionNotifyOn+":"+operationID),
			tgbotapi.NewInlineKeyboardButtonData("Disable notifications", actionNotifyOff+":"+operationID),
		),
	)
}

// CreateMessage sends a message and returns its ID. A non-empty
// operationID attaches that operation's subscription buttons.
func (b *Bot) CreateMessage(chatID int64, text string, operationID string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if operationID != "" {
		msg.ReplyMarkup = subscriptionKeyboard(operationID)
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}

	b.remember(sent.MessageID, text)
	return sent.MessageID, nil
}

// EditMessage replaces a message's text in place.
func (b *Bot) EditMessage(chatID int64, messageID int, text string, operationID string) error {
	var edit tgbotapi.Chattable
	if operationID != "" {
		e := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, subscriptionKeyboard(operationID))
		e.ParseMode = tgbotapi.ModeMarkdown
		e.DisableWebPagePreview = true
		edit = e
	} else {
		e := tgbotapi.NewEditMessageText(chatID, messageID, text)
		e.ParseMode = tgbotapi.ModeMarkdown
		e.DisableWebPagePreview = true
		edit = e
	}

	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}

	b.remember(messageID, text)
	return nil
}

// DeleteMessage removes a message. Deleting a message that is already
// gone surfaces as an error for the caller to log and ignore.
func (b *Bot) DeleteMessage(chatID int64, messageID int) error {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}

	b.mu.Lock()
	delete(b.contents, messageID)
	b.mu.Unlock()
	return nil
}

// MessageContent returns the last text this process sent or edited into
// a message. The Bot API offers no read-back, so content from before a
// restart is unknown and reported as an error.
func (b *Bot) MessageContent(_ int64, messageID int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.contents[messageID]
	if !ok {
		return "", fmt.Errorf("no known content for message %d", messageID)
	}
	return content, nil
}

func (b *Bot) remember(messageID int, text string) {
	b.mu.Lock()
	b.contents[messageID] = text
	b.mu.Unlock()
}
