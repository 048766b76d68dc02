// Copyright (c) 2025 BVK Chaitanya

package gobs

// TelegramState holds the chat ids learned from the messages of authorized
// users. Notifications can only be delivered to users with a known chat id.
type TelegramState struct {
	UserChatIDMap map[string]int64
}
