// Copyright (c) 2023 BVK Chaitanya

package gobs

import (
	"fmt"
)

// NewByTypename returns a pointer to a zero value of the named gob type. It is
// used by the db subcommands to decode values of a user-specified type.
func NewByTypename(typename string) (any, error) {
	var v any
	switch typename {
	case "WatchlistEntry":
		v = new(WatchlistEntry)
	case "User":
		v = new(User)
	case "Session":
		v = new(Session)
	case "TelegramState":
		v = new(TelegramState)
	case "KeyValue":
		v = new(KeyValue)
	default:
		return nil, fmt.Errorf("unsupported type name %q", typename)
	}
	return v, nil
}
