package bot

import (
	"fmt"
	"strconv"
	"strings"

	"orbat_bot/internal/model"
)

// defaultAdvanceMinutes is the reminder lead time when none is given.
const defaultAdvanceMinutes = 5

// ReminderArgs holds the parsed arguments of /remind and /unremind.
type ReminderArgs struct {
	Kind           model.ReminderKind
	Area           model.Area
	AdvanceMinutes int
}

// ParseReminderArgs parses "<release|start> <area> [minutes]".
func ParseReminderArgs(args string) (ReminderArgs, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return ReminderArgs{}, fmt.Errorf("usage: <release|start> <area> [minutes]")
	}

	kind, ok := model.ParseReminderKind(parts[0])
	if !ok {
		return ReminderArgs{}, fmt.Errorf("invalid kind %q, use: release, start", parts[0])
	}

	area, ok := model.ParseArea(parts[1])
	if !ok {
		return ReminderArgs{}, fmt.Errorf("unknown area %q, use /areas for the list", parts[1])
	}

	advance := defaultAdvanceMinutes
	if len(parts) >= 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 || n > 1440 {
			return ReminderArgs{}, fmt.Errorf("minutes must be between 1 and 1440")
		}
		advance = n
	}

	return ReminderArgs{Kind: kind, Area: area, AdvanceMinutes: advance}, nil
}

// ParseGameArg matches a command argument against the managed game list,
// case-insensitively.
func ParseGameArg(args string) (string, error) {
	name := strings.TrimSpace(args)
	if name == "" {
		return "", fmt.Errorf("game name is required")
	}
	for _, g := range model.GameNames {
		if strings.EqualFold(g, name) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown game %q, use /games for the list", name)
}
