// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	ChannelID        int64
	SessionCookie    string
	BaseURL          string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64

	// Poll cadence. The intervals encode the notification-latency target,
	// so they are configuration rather than constants.
	WatchInterval    time.Duration
	RemindInterval   time.Duration
	RemindWindow     time.Duration
	ReleaseLookahead time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	rawChannel := os.Getenv("CHANNEL_ID")
	if rawChannel == "" {
		return nil, fmt.Errorf("CHANNEL_ID is required")
	}
	channelID, err := strconv.ParseInt(rawChannel, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHANNEL_ID %q: %w", rawChannel, err)
	}

	session := os.Getenv("SESSION_COOKIE")
	if session == "" {
		return nil, fmt.Errorf("SESSION_COOKIE is required")
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "https://unitedtaskforce.net"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	watchEvery, err := durationOrDefault("WATCH_INTERVAL", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	remindEvery, err := durationOrDefault("REMIND_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	remindWindow, err := durationOrDefault("REMIND_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	lookahead, err := durationOrDefault("RELEASE_LOOKAHEAD", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken: token,
		ChannelID:        channelID,
		SessionCookie:    session,
		BaseURL:          baseURL,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AllowedUsers:     allowedUsers,
		WatchInterval:    watchEvery,
		RemindInterval:   remindEvery,
		RemindWindow:     remindWindow,
		ReleaseLookahead: lookahead,
	}, nil
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
	}
	return d, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
