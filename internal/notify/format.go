package notify

import (
	"fmt"
	"strings"
	"time"

	"orbat_bot/internal/model"
	"orbat_bot/internal/roster"
)

const timeLayout = "2006-01-02 15:04 UTC"

// Mention renders a Telegram text mention for a user ID.
func Mention(userID int64) string {
	return fmt.Sprintf("[@%d](tg://user?id=%d)", userID, userID)
}

// Mentions renders the subscriber list, or "Nobody" when it is empty.
func Mentions(userIDs []int64) string {
	if len(userIDs) == 0 {
		return "Nobody"
	}
	parts := make([]string, len(userIDs))
	for i, id := range userIDs {
		parts[i] = Mention(id)
	}
	return strings.Join(parts, " ")
}

// FormatStatus renders the main status message for an operation: the
// release state, a deep link, every group's open slots, and the current
// subscriber list.
func FormatStatus(ext *model.ExtendedOperation, subscribers []int64, baseURL string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ORBAT for %s: %s %s\n", ext.Name, ext.Description, releasePhrase(ext.Release, now))
	b.WriteString(roster.OrbatURL(baseURL, ext.ID) + "\n")
	b.WriteString("\nYou will be notified of any slot that opens up, so be prepared to be pinged a lot\n")

	for _, group := range ext.Groups {
		var open []string
		for _, slot := range group.Slots {
			if slot.IsOpen() {
				open = append(open, slot.Name)
			}
		}
		if len(open) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", group.Name)
		for _, name := range open {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}

	b.WriteString("\nNotifications enabled for: " + Mentions(subscribers) + "\n")
	return b.String()
}

func releasePhrase(release *time.Time, now time.Time) string {
	if release == nil {
		return "is released"
	}
	left := release.Sub(now).Round(time.Minute)
	if left <= 0 {
		return "is released"
	}
	return fmt.Sprintf("releases %s (in %s)", release.UTC().Format(timeLayout), left)
}

// FormatPing renders the one-shot notification for a newly opened slot.
func FormatPing(ext *model.ExtendedOperation, slot *model.Slot, subscribers []int64, baseURL string) string {
	group := ""
	if slot.Group != nil {
		group = slot.Group.Name + " "
	}
	text := fmt.Sprintf("%s%s slot just opened on %s. (%s)",
		group, slot.Name, ext.Name, roster.OrbatURL(baseURL, ext.ID))
	if len(subscribers) > 0 {
		text += "\n" + Mentions(subscribers)
	}
	return text
}

// FormatReminder renders the direct reminder sent ahead of an operation's
// release or start.
func FormatReminder(op model.Operation, reg model.ReminderRegistration, baseURL string) string {
	kind := "release"
	ts := op.Release
	if reg.Kind == model.RemindStart {
		kind = "start"
		ts = op.Start
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reminder for ORBAT %s of %s\n", kind, op.Name)
	if ts != nil {
		fmt.Fprintf(&b, "ORBAT %ss at %s\n", kind, ts.UTC().Format(timeLayout))
	}
	b.WriteString(roster.OrbatURL(baseURL, op.ID))
	return b.String()
}

// FormatOperationList renders the listing summary for the /operations
// command.
func FormatOperationList(ops []model.Operation, now time.Time) string {
	if len(ops) == 0 {
		return "No operations are currently listed."
	}
	var b strings.Builder
	b.WriteString("Current operations:\n")
	for _, op := range ops {
		fmt.Fprintf(&b, "\n%s [%s] %s\n", op.ID, op.Area, op.Name)
		if op.Release != nil {
			fmt.Fprintf(&b, "  %s\n", releasePhrase(op.Release, now))
		}
		if op.Start != nil {
			fmt.Fprintf(&b, "  starts %s\n", op.Start.UTC().Format(timeLayout))
		}
	}
	return b.String()
}
