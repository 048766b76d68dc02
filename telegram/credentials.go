// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"fmt"
	"slices"
)

// Secrets configure the bot and the telegram user names that may talk to it.
// Owner receives all notifications. Members can run the bot commands and also
// receive notifications.
type Secrets struct {
	BotToken string `json:"token"`

	Owner string `json:"owner"`

	Members []string `json:"members,omitempty"`
}

func (v *Secrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if len(v.Owner) == 0 {
		return fmt.Errorf("owner user name cannot be empty")
	}
	for i, m := range v.Members {
		if len(m) == 0 {
			return fmt.Errorf("member user name at index %d cannot be empty", i)
		}
		if m == v.Owner {
			return fmt.Errorf("owner %q should not be repeated in members", m)
		}
		if slices.Index(v.Members, m) != i {
			return fmt.Errorf("member %q is repeated", m)
		}
	}
	return nil
}

// Users returns the owner followed by the members.
func (v *Secrets) Users() []string {
	return append([]string{v.Owner}, v.Members...)
}

func (v *Secrets) Clone() *Secrets {
	return &Secrets{
		BotToken: v.BotToken,
		Owner:    v.Owner,
		Members:  slices.Clone(v.Members),
	}
}
