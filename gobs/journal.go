// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"time"
)

// JournalEntry is a recorded reactor event. Payload holds the JSON encoding
// of the sanitized event payload.
type JournalEntry struct {
	ID   string
	Time time.Time

	Event   string
	Payload []byte
}

// ServerState holds the session history persisted by the daemon across
// restarts.
type ServerState struct {
	LastLoginTime time.Time

	LastLogoutTime    time.Time
	LastLogoutEResult int
	LastLogoutMessage string

	NumCompletedTrades int64
	NumFailedTrades    int64
}

type TelegramState struct {
	// UserChatIDMap holds the chat ids for the authorized users.
	UserChatIDMap map[string]int64
}
