// Copyright (c) 2025 BVK Chaitanya

// Package notify delivers short user-facing notifications: the toast-like
// success and error messages of watchlist toggles and the change alerts of
// the server.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

type Level int

const (
	Success Level = iota
	Failure
)

func (l Level) String() string {
	if l == Failure {
		return "error"
	}
	return "success"
}

type Notification struct {
	Level Level

	// Title is the primary message. Description is optional.
	Title       string
	Description string

	At time.Time
}

func (n *Notification) String() string {
	if len(n.Description) == 0 {
		return n.Title
	}
	return n.Title + ": " + n.Description
}

type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// Sender is implemented by the message based clients (pushover, telegram).
type Sender interface {
	SendMessage(ctx context.Context, at time.Time, msg string) error
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, n *Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}

// Log returns a notifier that writes notifications to the default logger.
func Log() Notifier {
	return NotifierFunc(func(ctx context.Context, n *Notification) error {
		if n.Level == Failure {
			slog.ErrorContext(ctx, n.Title, "description", n.Description)
		} else {
			slog.InfoContext(ctx, n.Title, "description", n.Description)
		}
		return nil
	})
}

// Writer returns a notifier that prints one line per notification.
func Writer(w io.Writer) Notifier {
	return NotifierFunc(func(ctx context.Context, n *Notification) error {
		_, err := fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(n.Level.String()), n)
		return err
	})
}

// FromSender returns a notifier that forwards notifications as text messages.
func FromSender(s Sender) Notifier {
	return NotifierFunc(func(ctx context.Context, n *Notification) error {
		at := n.At
		if at.IsZero() {
			at = time.Now()
		}
		return s.SendMessage(ctx, at, n.String())
	})
}

// Multi returns a notifier that delivers to all notifiers. Every notifier is
// attempted; the errors are joined.
func Multi(ns ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, n *Notification) error {
		var errs []error
		for _, v := range ns {
			if v == nil {
				continue
			}
			if err := v.Notify(ctx, n); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
