// Copyright (c) 2025 BVK Chaitanya

package identity

import (
	"fmt"
	"time"
)

const DefaultSessionTTL = 30 * 24 * time.Hour

type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// SessionTTL is the lifetime of new sessions.
	SessionTTL time.Duration
}

func (v *Options) setDefaults() {
	if v.Now == nil {
		v.Now = time.Now
	}
	if v.SessionTTL == 0 {
		v.SessionTTL = DefaultSessionTTL
	}
}

func (v *Options) Check() error {
	if v.SessionTTL < time.Minute {
		return fmt.Errorf("session ttl %s is too short", v.SessionTTL)
	}
	return nil
}
