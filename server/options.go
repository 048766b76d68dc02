// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"fmt"
	"time"

	"github.com/bvk/stockwatch/quote"
)

type Options struct {
	// QuoteSource overrides the Finnhub client created from the secrets. Used
	// by tests.
	QuoteSource quote.Source

	// QuoteCacheTTL is the lifetime of cached quotes. Enriched watchlist
	// responses are cached for the same duration.
	QuoteCacheTTL time.Duration

	// MaxFanOut limits the concurrent quote fetches per watchlist.
	MaxFanOut int

	// SessionTTL is the lifetime of sign-in sessions.
	SessionTTL time.Duration

	// PurgeInterval is the period of the background cleanup of expired
	// sessions and cache items.
	PurgeInterval time.Duration

	// NotifyChanges, when true, sends a message through the configured
	// notification services on every watchlist change.
	NotifyChanges bool
}

func (v *Options) setDefaults() {
	if v.QuoteCacheTTL == 0 {
		v.QuoteCacheTTL = quote.DefaultCacheTTL
	}
	if v.PurgeInterval == 0 {
		v.PurgeInterval = 10 * time.Minute
	}
}

func (v *Options) Check() error {
	if v.QuoteCacheTTL < 0 {
		return fmt.Errorf("quote cache ttl cannot be negative")
	}
	if v.PurgeInterval < time.Second {
		return fmt.Errorf("purge interval is too small")
	}
	return nil
}
