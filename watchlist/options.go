// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"fmt"
	"time"
)

type Options struct {
	// Now returns the timestamp for new entries. Defaults to time.Now.
	Now func() time.Time

	// MaxFanOut limits the number of concurrent quote fetches in a single
	// ListEnriched call.
	MaxFanOut int

	// QuoteTimeout bounds each individual quote fetch. A fetch that times out
	// degrades to an entry without quote data.
	QuoteTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.Now == nil {
		v.Now = time.Now
	}
	if v.MaxFanOut == 0 {
		v.MaxFanOut = 8
	}
	if v.QuoteTimeout == 0 {
		v.QuoteTimeout = 10 * time.Second
	}
}

func (v *Options) Check() error {
	if v.MaxFanOut < 0 {
		return fmt.Errorf("max fan-out cannot be negative")
	}
	if v.QuoteTimeout < 0 {
		return fmt.Errorf("quote timeout cannot be negative")
	}
	return nil
}
