// Copyright (c) 2025 BVK Chaitanya

package toggle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bvk/stockwatch/notify"
	"github.com/bvk/stockwatch/watchlist"
	"github.com/bvkgo/kv/kvmemdb"
)

type fakeMutator struct {
	mu    sync.Mutex
	calls []string

	// started receives the name of every call when non-nil.
	started chan string

	// gate, when non-nil, blocks calls until it is closed or the context is
	// canceled.
	gate chan struct{}

	addResult *watchlist.Result
	err       error
}

func (m *fakeMutator) call(ctx context.Context, name string) error {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	gate := m.gate
	m.mu.Unlock()

	if m.started != nil {
		m.started <- name
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
	return m.err
}

func (m *fakeMutator) Add(ctx context.Context, symbol, company string) (*watchlist.Result, error) {
	if err := m.call(ctx, "add "+symbol); err != nil {
		return nil, err
	}
	if m.addResult != nil {
		return m.addResult, nil
	}
	return &watchlist.Result{Success: true, Message: watchlist.MessageAdded}, nil
}

func (m *fakeMutator) Remove(ctx context.Context, symbol string) (*watchlist.Result, error) {
	if err := m.call(ctx, "remove "+symbol); err != nil {
		return nil, err
	}
	return &watchlist.Result{Success: true, Message: watchlist.MessageRemoved}, nil
}

func (m *fakeMutator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type recorder struct {
	mu            sync.Mutex
	notifications []*notify.Notification
	changes       []string
}

func (r *recorder) Notify(_ context.Context, n *notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *recorder) OnChange(symbol string, added bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, fmt.Sprintf("%s=%t", symbol, added))
}

func (r *recorder) options() *Options {
	return &Options{Window: testWindow, Notifier: r, OnChange: r.OnChange}
}

func waitSettled(t *testing.T, tg *Toggle) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tg.Wait(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestClickFlipsImmediately(t *testing.T) {
	m := new(fakeMutator)
	r := new(recorder)
	tg, err := New("aapl", "Apple Inc.", false, m, r.options())
	if err != nil {
		t.Fatal(err)
	}
	defer tg.Close()

	if added := tg.Click(); !added {
		t.Fatalf("wanted displayed state to flip to added")
	}
	s := tg.State()
	if !s.Added || !s.Pending || !s.PendingIntent || s.Symbol != "AAPL" {
		t.Fatalf("unexpected state %#v", s)
	}
	if calls := m.Calls(); len(calls) != 0 {
		t.Fatalf("network call must wait for the debounce window, got %v", calls)
	}

	waitSettled(t, tg)

	if calls := m.Calls(); len(calls) != 1 || calls[0] != "add AAPL" {
		t.Fatalf("wanted one add call, got %v", calls)
	}
	if s := tg.State(); !s.Added || s.Pending {
		t.Fatalf("unexpected settled state %#v", s)
	}
	if len(r.notifications) != 1 {
		t.Fatalf("wanted one notification, got %d", len(r.notifications))
	}
	n := r.notifications[0]
	if n.Level != notify.Success || n.Title != watchlist.MessageAdded || n.Description != "Apple Inc. added to your watchlist" {
		t.Fatalf("unexpected notification %#v", n)
	}
	if fmt.Sprint(r.changes) != "[AAPL=true]" {
		t.Fatalf("unexpected changes %v", r.changes)
	}
}

func TestRapidClicksCollapse(t *testing.T) {
	m := new(fakeMutator)
	r := new(recorder)
	tg, err := New("MSFT", "Microsoft", true, m, r.options())
	if err != nil {
		t.Fatal(err)
	}
	defer tg.Close()

	tg.Click()
	tg.Click()
	tg.Click()
	waitSettled(t, tg)

	if calls := m.Calls(); len(calls) != 1 || calls[0] != "remove MSFT" {
		t.Fatalf("wanted a single remove call, got %v", calls)
	}
	if tg.State().Added {
		t.Fatalf("wanted removed state")
	}
}

func TestEvenClicksSkipNetwork(t *testing.T) {
	m := new(fakeMutator)
	r := new(recorder)
	tg, err := New("MSFT", "Microsoft", false, m, r.options())
	if err != nil {
		t.Fatal(err)
	}
	defer tg.Close()

	tg.Click()
	tg.Click()
	waitSettled(t, tg)

	if calls := m.Calls(); len(calls) != 0 {
		t.Fatalf("wanted no network calls, got %v", calls)
	}
	if s := tg.State(); s.Added || s.Pending {
		t.Fatalf("unexpected state %#v", s)
	}
	if len(r.notifications) != 0 || len(r.changes) != 0 {
		t.Fatalf("wanted no notifications, got %v %v", r.notifications, r.changes)
	}
}

func TestFailureReverts(t *testing.T) {
	m := &fakeMutator{err: fmt.Errorf("server unavailable: %w", watchlist.ErrPersistence)}
	r := new(recorder)
	tg, err := New("NVDA", "NVIDIA", false, m, r.options())
	if err != nil {
		t.Fatal(err)
	}
	defer tg.Close()

	tg.Click()
	waitSettled(t, tg)

	if s := tg.State(); s.Added || s.Pending {
		t.Fatalf("wanted state reverted to absent, got %#v", s)
	}
	if len(r.notifications) != 1 || r.notifications[0].Level != notify.Failure {
		t.Fatalf("wanted one failure notification, got %#v", r.notifications)
	}
	if len(r.changes) != 0 {
		t.Fatalf("wanted no change callbacks, got %v", r.changes)
	}
}

func TestAlreadyExistsConfirms(t *testing.T) {
	m := &fakeMutator{addResult: &watchlist.Result{Success: false, Message: watchlist.MessageAlreadyExists}}
	r := new(recorder)
	tg, err := New("AAPL", "Apple Inc.", false, m, r.options())
	if err != nil {
		t.Fatal(err)
	}
	defer tg.Close()

	tg.Click()
	waitSettled(t, tg)

	if !tg.State().Added {
		t.Fatalf("wanted added state")
	}
	if len(r.notifications) != 0 {
		t.Fatalf("wanted no success notification, got %#v", r.notifications)
	}
	if fmt.Sprint(r.changes) != "[AAPL=true]" {
		t.Fatalf("unexpected changes %v", r.changes)
	}

	// The server state is confirmed, so clicking twice is a no-op.
	tg.Click()
	tg.Click()
	waitSettled(t, tg)
	if calls := m.Calls(); len(calls) != 1 {
		t.Fatalf("wanted one call, got %v", calls)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	m := &fakeMutator{started: make(chan string, 4), gate: make(chan struct{})}
	r := new(recorder)
	tg, err := New("AAPL", "Apple Inc.", false, m, r.options())
	if err != nil {
		t.Fatal(err)
	}
	defer tg.Close()

	tg.Click()
	if got := <-m.started; got != "add AAPL" {
		t.Fatalf("wanted add call, got %s", got)
	}

	// Supersede the in-flight add.
	if added := tg.Click(); added {
		t.Fatalf("wanted displayed state to flip to absent")
	}

	// Let the add resolve. The remove call starts only after that.
	gate := m.gate
	m.mu.Lock()
	m.gate = make(chan struct{})
	m.mu.Unlock()
	close(gate)

	if got := <-m.started; got != "remove AAPL" {
		t.Fatalf("wanted remove call, got %s", got)
	}
	if s := tg.State(); s.Added || !s.Pending {
		t.Fatalf("stale add response must not flip the displayed state, got %#v", s)
	}
	if len(r.notifications) != 0 {
		t.Fatalf("stale response must not notify, got %#v", r.notifications)
	}

	m.mu.Lock()
	close(m.gate)
	m.mu.Unlock()
	waitSettled(t, tg)

	if s := tg.State(); s.Added || s.Pending {
		t.Fatalf("unexpected final state %#v", s)
	}
	if fmt.Sprint(r.changes) != "[AAPL=false]" {
		t.Fatalf("unexpected changes %v", r.changes)
	}
}

func TestCloseIgnoresInflight(t *testing.T) {
	m := &fakeMutator{started: make(chan string, 1), gate: make(chan struct{})}
	r := new(recorder)
	tg, err := New("AAPL", "Apple Inc.", false, m, r.options())
	if err != nil {
		t.Fatal(err)
	}

	tg.Click()
	<-m.started
	tg.Close()

	if len(r.notifications) != 0 || len(r.changes) != 0 {
		t.Fatalf("torn down toggle must ignore results, got %v %v", r.notifications, r.changes)
	}
	if added := tg.Click(); !added {
		t.Fatalf("clicks after close must not change state")
	}
	if err := tg.Wait(context.Background()); err == nil {
		t.Fatalf("wanted error from wait after close")
	}
}

func TestServiceMutator(t *testing.T) {
	ctx := context.Background()
	svc, err := watchlist.New(watchlist.NewKVStore(kvmemdb.New()), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	r := new(recorder)
	tg, err := New("AAPL", "Apple Inc.", false, ServiceMutator(svc, "u1"), r.options())
	if err != nil {
		t.Fatal(err)
	}
	defer tg.Close()

	tg.Click()
	waitSettled(t, tg)
	if symbols := svc.Symbols(ctx, "u1"); fmt.Sprint(symbols) != "[AAPL]" {
		t.Fatalf("wanted [AAPL], got %v", symbols)
	}

	tg.Click()
	waitSettled(t, tg)
	if symbols := svc.Symbols(ctx, "u1"); len(symbols) != 0 {
		t.Fatalf("wanted empty watchlist, got %v", symbols)
	}

	if _, err := New("AAPL", "", false, nil, nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted error for nil mutator")
	}
}
