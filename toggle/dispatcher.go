// Copyright (c) 2025 BVK Chaitanya

package toggle

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bvk/stockwatch/ctxutil"
)

// DefaultWindow is the default quiescence window of a Dispatcher.
const DefaultWindow = 300 * time.Millisecond

// Dispatcher collapses bursts of scheduled functions into a single trailing
// call. Every Schedule restarts the quiescence window and replaces the
// previously scheduled function, so only the last function of a burst runs
// and it runs exactly once.
//
// Functions run in a background goroutine with a context that is canceled
// when the dispatcher is closed.
type Dispatcher struct {
	cg ctxutil.CloseGroup

	window time.Duration

	mu sync.Mutex

	closed bool

	// generation identifies the latest scheduled function; a timer firing for
	// an older generation is a no-op.
	generation uint64

	timer *time.Timer
}

func NewDispatcher(window time.Duration) *Dispatcher {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Dispatcher{window: window}
}

// Schedule arranges for fn to run after the quiescence window unless another
// function is scheduled before that. Returns false if the dispatcher is
// closed, in which case fn is dropped.
func (d *Dispatcher) Schedule(fn func(ctx context.Context)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen, fn) })
	return true
}

// Pending returns true if a scheduled function is waiting for its window to
// elapse.
func (d *Dispatcher) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Dispatcher) fire(gen uint64, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Timer.Stop cannot stop a timer that has already fired, so a superseded
	// function may reach here after a newer Schedule.
	if d.closed || gen != d.generation {
		return
	}
	d.timer = nil

	d.cg.Go(func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("CAUGHT PANIC", "panic", r)
				slog.Error(string(debug.Stack()))
				panic(r)
			}
		}()
		fn(ctx)
	})
}

// Close drops any pending function, cancels the context of a running function
// and waits for it to return.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.cg.Close()
}
