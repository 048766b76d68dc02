// Copyright (c) 2025 BVK Chaitanya

package gobs

import "time"

// WatchlistEntry is a persisted (user, symbol) membership record. Entries are
// created and deleted, but never updated in place.
type WatchlistEntry struct {
	UserID string

	// Symbol is always stored in upper case.
	Symbol string

	Company string

	AddedAt time.Time
}
