package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"orbat_bot/internal/model"
	"orbat_bot/internal/notify"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID
	userID := msg.From.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID, "user_id", userID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "operations":
		b.handleOperations(ctx, chatID)
	case "areas":
		b.handleAreas(chatID)
	case "remind":
		b.handleRemindAdd(ctx, chatID, userID, args)
	case "unremind":
		b.handleRemindRemove(ctx, chatID, userID, args)
	case "reminders":
		b.handleRemindList(ctx, chatID, userID)
	case "subscribe":
		b.handleGameSubscribe(ctx, chatID, userID, args)
	case "unsubscribe":
		b.handleGameUnsubscribe(ctx, chatID, userID, args)
	case "games":
		b.handleGames(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the ORBAT watcher!

The channel gets a status message per operation; use its buttons to
enable mention pings when slots open up.

Quick start:
1. /operations — see what is currently listed
2. /remind release infantry 10 — get pinged 10 min before release
3. /subscribe Squad — join a game ping group

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Operations:
/operations — current listing with release/start times
/areas — valid area names

Reminders:
/remind <release|start> <area> [minutes] — add or replace a reminder (default 5 min)
/unremind <release|start> <area> — remove a reminder
/reminders — show your reminders

Game pings:
/subscribe <game> — join a game ping group
/unsubscribe <game> — leave a game ping group
/games — list games and member counts

Slot notifications are toggled with the buttons under each operation's
status message in the channel.`)
}

func (b *Bot) handleOperations(ctx context.Context, chatID int64) {
	ops, err := b.source.Operations(ctx)
	if err != nil {
		b.log.Error("list operations", "error", err)
		b.reply(chatID, "Could not fetch the operation listing, try again later.")
		return
	}
	b.reply(chatID, notify.FormatOperationList(ops, time.Now()))
}

func (b *Bot) handleAreas(chatID int64) {
	names := make([]string, len(model.Areas))
	for i, a := range model.Areas {
		names[i] = string(a)
	}
	b.reply(chatID, "Areas: "+strings.Join(names, ", "))
}

func (b *Bot) handleRemindAdd(ctx context.Context, chatID, userID int64, args string) {
	parsed, err := ParseReminderArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /remind <release|start> <area> [minutes]\n%v", err))
		return
	}

	reg := model.ReminderRegistration{
		Kind:           parsed.Kind,
		Area:           parsed.Area,
		UserID:         userID,
		AdvanceMinutes: parsed.AdvanceMinutes,
	}
	if err := b.store.ReplaceReminder(ctx, reg); err != nil {
		b.log.Error("replace reminder", "user_id", userID, "error", err)
		b.reply(chatID, "Failed to save the reminder.")
		return
	}

	if parsed.Area == model.AreaOperation {
		b.reply(chatID, fmt.Sprintf("Okay, I will remind you %d minutes before an operation %s.",
			parsed.AdvanceMinutes, parsed.Kind))
		return
	}
	b.reply(chatID, fmt.Sprintf("Okay, I will remind you %d minutes before a %s FTX %s.",
		parsed.AdvanceMinutes, parsed.Area, parsed.Kind))
}

func (b *Bot) handleRemindRemove(ctx context.Context, chatID, userID int64, args string) {
	parsed, err := ParseReminderArgs(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /unremind <release|start> <area>\n%v", err))
		return
	}

	if err := b.store.DeleteReminder(ctx, parsed.Kind, parsed.Area, userID); err != nil {
		b.log.Error("delete reminder", "user_id", userID, "error", err)
		b.reply(chatID, "Failed to remove the reminder.")
		return
	}

	if parsed.Area == model.AreaOperation {
		b.reply(chatID, fmt.Sprintf("Okay, I won't remind you anymore about operation %ss.", parsed.Kind))
		return
	}
	b.reply(chatID, fmt.Sprintf("Okay, I won't remind you anymore about %s FTX %ss.", parsed.Area, parsed.Kind))
}

func (b *Bot) handleRemindList(ctx context.Context, chatID, userID int64) {
	regs, err := b.store.ListUserReminders(ctx, userID)
	if err != nil {
		b.log.Error("list reminders", "user_id", userID, "error", err)
		b.reply(chatID, "Failed to load your reminders.")
		return
	}
	if len(regs) == 0 {
		b.reply(chatID, "You have no reminders. Use /remind to add one.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your reminders:\n")
	for _, reg := range regs {
		fmt.Fprintf(&sb, "\n%s %s — %d min before\n", reg.Kind, reg.Area, reg.AdvanceMinutes)
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleGameSubscribe(ctx context.Context, chatID, userID int64, args string) {
	game, err := ParseGameArg(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /subscribe <game>\n%v", err))
		return
	}

	changed, err := b.store.AddGameMember(ctx, game, userID)
	if err != nil {
		b.log.Error("add game member", "game", game, "user_id", userID, "error", err)
		b.reply(chatID, "Failed to subscribe.")
		return
	}
	if !changed {
		b.reply(chatID, fmt.Sprintf("You are already subscribed to pings for %s.", game))
		return
	}
	b.reply(chatID, fmt.Sprintf("You are subscribed to pings for %s.", game))
}

func (b *Bot) handleGameUnsubscribe(ctx context.Context, chatID, userID int64, args string) {
	game, err := ParseGameArg(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /unsubscribe <game>\n%v", err))
		return
	}

	if _, err := b.store.RemoveGameMember(ctx, game, userID); err != nil {
		b.log.Error("remove game member", "game", game, "user_id", userID, "error", err)
		b.reply(chatID, "Failed to unsubscribe.")
		return
	}
	b.reply(chatID, fmt.Sprintf("You are unsubscribed from pings for %s.", game))
}

func (b *Bot) handleGames(ctx context.Context, chatID int64) {
	var sb strings.Builder
	sb.WriteString("Games:\n")
	for _, game := range model.GameNames {
		members, err := b.store.ListGameMembers(ctx, game)
		if err != nil {
			b.log.Error("list game members", "game", game, "error", err)
			continue
		}
		fmt.Fprintf(&sb, "\n%s — %d subscribed\n", game, len(members))
	}
	b.reply(chatID, sb.String())
}
