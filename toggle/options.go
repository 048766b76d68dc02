// Copyright (c) 2025 BVK Chaitanya

package toggle

import (
	"fmt"
	"time"

	"github.com/bvk/stockwatch/notify"
)

type Options struct {
	// Window is the debounce quiescence window.
	Window time.Duration

	// Notifier receives the success and failure messages of resolved
	// dispatches. Defaults to logging them.
	Notifier notify.Notifier

	// OnChange, when non-nil, is called with the server-confirmed state after
	// each resolved dispatch that is not superseded.
	OnChange func(symbol string, added bool)
}

func (v *Options) setDefaults() {
	if v.Window == 0 {
		v.Window = DefaultWindow
	}
	if v.Notifier == nil {
		v.Notifier = notify.Log()
	}
}

func (v *Options) Check() error {
	if v.Window < 0 {
		return fmt.Errorf("debounce window cannot be negative")
	}
	return nil
}
