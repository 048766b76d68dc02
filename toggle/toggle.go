// Copyright (c) 2025 BVK Chaitanya

// Package toggle implements the client side of a watchlist membership
// button: an optimistic per-symbol state that flips on every click and is
// reconciled with the server through a debounced dispatcher.
package toggle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bvk/stockwatch/identity"
	"github.com/bvk/stockwatch/notify"
	"github.com/bvk/stockwatch/quote"
	"github.com/bvk/stockwatch/watchlist"
)

// Mutator performs watchlist mutations for the signed-in user.
type Mutator interface {
	Add(ctx context.Context, symbol, company string) (*watchlist.Result, error)
	Remove(ctx context.Context, symbol string) (*watchlist.Result, error)
}

// State is a snapshot of a Toggle.
type State struct {
	Symbol  string
	Company string

	// Added is the displayed state.
	Added bool

	// Pending is true when a click has not yet been reconciled with the
	// server. PendingIntent is the desired end state in that case.
	Pending       bool
	PendingIntent bool
}

type Toggle struct {
	opts Options

	mutator Mutator

	dispatcher *Dispatcher

	symbol  string
	company string

	// inflight serializes the network calls so that the server applies them
	// in click order.
	inflight sync.Mutex

	mu sync.Mutex

	closed bool

	added     bool
	confirmed bool

	pending bool
	intent  bool

	// seq identifies the latest click; resolutions of older clicks do not
	// touch the displayed state.
	seq uint64

	// settled is closed when the pending intent is cleared.
	settled chan struct{}
}

// New creates a toggle for symbol initialized from the server-provided
// membership state.
func New(symbol, company string, isInWatchlist bool, m Mutator, opts *Options) (*Toggle, error) {
	if m == nil {
		return nil, fmt.Errorf("mutator cannot be nil: %w", os.ErrInvalid)
	}
	symbol = quote.Normalize(symbol)
	if err := quote.CheckSymbol(symbol); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	t := &Toggle{
		opts:       *opts,
		mutator:    m,
		dispatcher: NewDispatcher(opts.Window),
		symbol:     symbol,
		company:    strings.TrimSpace(company),
		added:      isInWatchlist,
		confirmed:  isInWatchlist,
	}
	return t, nil
}

// Close tears down the toggle. A pending dispatch is dropped and the result of
// an in-flight dispatch is ignored.
func (t *Toggle) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	if t.settled != nil {
		close(t.settled)
		t.settled = nil
	}
	t.mu.Unlock()

	t.dispatcher.Close()
	return nil
}

func (t *Toggle) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return State{
		Symbol:        t.symbol,
		Company:       t.company,
		Added:         t.added,
		Pending:       t.pending,
		PendingIntent: t.intent,
	}
}

// Click flips the displayed state immediately and schedules the server
// update. Returns the new displayed state.
func (t *Toggle) Click() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return t.added
	}

	t.added = !t.added
	t.seq++
	t.pending, t.intent = true, t.added
	if t.settled == nil {
		t.settled = make(chan struct{})
	}

	seq, intent := t.seq, t.intent
	t.dispatcher.Schedule(func(ctx context.Context) {
		t.dispatch(ctx, seq, intent)
	})
	return t.added
}

// Wait blocks until the latest click is reconciled with the server or the
// toggle is closed.
func (t *Toggle) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return os.ErrClosed
	}
	settled := t.settled
	t.mu.Unlock()

	if settled == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-settled:
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return os.ErrClosed
	}
	return nil
}

// settleLocked clears the pending intent. Caller must hold t.mu.
func (t *Toggle) settleLocked() {
	t.pending = false
	if t.settled != nil {
		close(t.settled)
		t.settled = nil
	}
}

func (t *Toggle) isLatestLocked(seq uint64) bool {
	return !t.closed && seq == t.seq
}

func (t *Toggle) dispatch(ctx context.Context, seq uint64, intent bool) {
	t.inflight.Lock()
	defer t.inflight.Unlock()

	t.mu.Lock()
	if !t.isLatestLocked(seq) {
		t.mu.Unlock()
		return
	}
	if intent == t.confirmed {
		// The burst ended where it started.
		t.settleLocked()
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	var result *watchlist.Result
	var err error
	if intent {
		result, err = t.mutator.Add(ctx, t.symbol, t.company)
	} else {
		result, err = t.mutator.Remove(ctx, t.symbol)
	}
	if err == nil && result == nil {
		err = fmt.Errorf("mutation returned no result")
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if err == nil {
		// An already-present symbol also confirms the intent.
		t.confirmed = intent
	}
	if !t.isLatestLocked(seq) {
		t.mu.Unlock()
		if err != nil {
			slog.WarnContext(ctx, "superseded watchlist update has failed (ignored)", "symbol", t.symbol, "added", intent, "err", err)
		}
		return
	}
	if err != nil {
		t.added = t.confirmed
	}
	confirmed := t.confirmed
	t.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "could not update watchlist", "symbol", t.symbol, "added", intent, "err", err)
		t.notify(ctx, failureNotification(err))
	} else {
		if result.Success {
			t.notify(ctx, &notify.Notification{
				Level:       notify.Success,
				Title:       result.Message,
				Description: t.describe(intent),
				At:          time.Now(),
			})
		}
		if t.opts.OnChange != nil {
			t.opts.OnChange(t.symbol, confirmed)
		}
	}

	t.mu.Lock()
	if t.isLatestLocked(seq) {
		t.settleLocked()
	}
	t.mu.Unlock()
}

func (t *Toggle) describe(added bool) string {
	name := t.company
	if len(name) == 0 {
		name = t.symbol
	}
	if added {
		return name + " added to your watchlist"
	}
	return name + " removed from your watchlist"
}

func (t *Toggle) notify(ctx context.Context, n *notify.Notification) {
	if err := t.opts.Notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "could not deliver notification (ignored)", "title", n.Title, "err", err)
	}
}

func failureNotification(err error) *notify.Notification {
	n := &notify.Notification{
		Level:       notify.Failure,
		Title:       "Could not update watchlist",
		Description: err.Error(),
		At:          time.Now(),
	}
	if errors.Is(err, identity.ErrNotAuthenticated) {
		n.Title = "Sign in to update your watchlist"
		n.Description = "/sign-in"
	}
	return n
}
