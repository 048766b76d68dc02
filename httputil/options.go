// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"fmt"
	"time"
)

type Options struct {
	// ServerCheckTimeout holds the http client timeout when checking for the
	// http server initialization.
	ServerCheckTimeout time.Duration

	// ServerCheckRetryInterval holds the amount of time to wait to check for
	// the http server readiness.
	ServerCheckRetryInterval time.Duration

	// ReadHeaderTimeout limits the time to read the request headers.
	ReadHeaderTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.ServerCheckTimeout == 0 {
		v.ServerCheckTimeout = 10 * time.Second
	}
	if v.ServerCheckRetryInterval == 0 {
		v.ServerCheckRetryInterval = 100 * time.Millisecond
	}
	if v.ReadHeaderTimeout == 0 {
		v.ReadHeaderTimeout = 10 * time.Second
	}
}

func (v *Options) Check() error {
	if v.ServerCheckRetryInterval > v.ServerCheckTimeout {
		return fmt.Errorf("server check retry interval cannot be larger than the check timeout")
	}
	return nil
}
