// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bvk/stockwatch/api"
	"github.com/bvk/stockwatch/client"
	"github.com/bvk/stockwatch/identity"
	"github.com/bvk/stockwatch/notify"
	"github.com/bvk/stockwatch/quote"
	"github.com/bvk/stockwatch/toggle"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
)

func testQuoteSource(ctx context.Context, symbol string) (*quote.Quote, error) {
	if symbol != "AAPL" {
		return nil, quote.ErrNoData
	}
	q := &quote.Quote{
		Symbol:        "AAPL",
		Company:       "Apple Inc",
		CurrentPrice:  decimal.RequireFromString("189.5"),
		ChangePercent: decimal.RequireFromString("1.25"),
		MarketCap:     decimal.RequireFromString("2850000000000"),
		PERatio:       "29.4",
	}
	q.Fill()
	return q, nil
}

func newTestServer(t *testing.T) (*Server, *url.URL) {
	t.Helper()

	opts := &Options{
		QuoteSource: quote.SourceFunc(testQuoteSource),
	}
	s, err := New(context.Background(), nil /* secrets */, kvmemdb.New(), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	mux := http.NewServeMux()
	for k, v := range s.HandlerMap() {
		mux.Handle(k, v)
	}
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	return s, u
}

func signIn(t *testing.T, ctx context.Context, u *url.URL, email string) *client.Client {
	t.Helper()
	anon := client.New(u, nil, "")
	if _, err := anon.SignUp(ctx, email, "Test User"); err != nil {
		t.Fatal(err)
	}
	c, _, err := anon.SignIn(ctx, email)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestWatchlistEndToEnd(t *testing.T) {
	ctx := context.Background()
	_, u := newTestServer(t)
	c := signIn(t, ctx, u, "ada@example.com")

	res, err := c.Add(ctx, "aapl", "Apple Inc.")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("wanted success, got %#v", res)
	}

	entries, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Symbol != "AAPL" {
		t.Fatalf("unexpected entries %#v", entries)
	}

	res, err = c.Add(ctx, "AAPL", "Apple Inc.")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || !strings.Contains(res.Message, "already") {
		t.Fatalf("wanted already exists result, got %#v", res)
	}
	if entries, _ := c.List(ctx); len(entries) != 1 {
		t.Fatalf("wanted one entry, got %d", len(entries))
	}

	time.Sleep(time.Millisecond) // Distinct addedAt timestamps.
	if _, err := c.Add(ctx, "MSFT", "Microsoft"); err != nil {
		t.Fatal(err)
	}

	enriched, err := c.ListEnriched(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(enriched) != 2 {
		t.Fatalf("wanted two enriched entries, got %d", len(enriched))
	}
	if enriched[0].Symbol != "AAPL" || enriched[0].Quote == nil || enriched[0].Quote.PriceFormatted != "$189.50" {
		t.Fatalf("wanted AAPL with quote, got %#v", enriched[0])
	}
	if enriched[1].Symbol != "MSFT" || enriched[1].Quote != nil {
		t.Fatalf("wanted MSFT without quote, got %#v", enriched[1])
	}

	if res, err := c.Remove(ctx, "NVDA"); err != nil || !res.Success {
		t.Fatalf("wanted idempotent remove, got %v, %v", res, err)
	}
	if res, err := c.Remove(ctx, "msft"); err != nil || !res.Success {
		t.Fatalf("wanted successful remove, got %v, %v", res, err)
	}

	// The enriched view must reflect the removal right away.
	enriched, err = c.ListEnriched(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(enriched) != 1 || enriched[0].Symbol != "AAPL" {
		t.Fatalf("wanted only AAPL, got %#v", enriched)
	}

	symbols, err := c.Symbols(ctx, "ADA@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(symbols) != "[AAPL]" {
		t.Fatalf("wanted [AAPL], got %v", symbols)
	}

	other := signIn(t, ctx, u, "bob@example.com")
	if _, err := other.Symbols(ctx, "ada@example.com"); !errors.Is(err, os.ErrPermission) {
		t.Fatalf("wanted os.ErrPermission for another user's symbols, got %v", err)
	}
	anon := client.New(u, nil, "")
	if _, err := anon.Symbols(ctx, "ada@example.com"); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Fatalf("wanted ErrNotAuthenticated, got %v", err)
	}
}

func TestUnauthenticated(t *testing.T) {
	ctx := context.Background()
	_, u := newTestServer(t)

	anon := client.New(u, nil, "")
	if _, err := anon.Add(ctx, "AAPL", "Apple Inc."); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Fatalf("wanted ErrNotAuthenticated, got %v", err)
	}
	if _, err := anon.Symbols(ctx, ""); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Fatalf("wanted ErrNotAuthenticated, got %v", err)
	}

	resp, err := http.Post(u.String()+api.WatchlistListPath, "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wanted 401, got %d", resp.StatusCode)
	}
	eresp := new(api.ErrorResponse)
	if err := json.NewDecoder(resp.Body).Decode(eresp); err != nil {
		t.Fatal(err)
	}
	if eresp.Redirect != api.SignInRedirect {
		t.Fatalf("wanted redirect to %s, got %#v", api.SignInRedirect, eresp)
	}
}

func TestBadRequests(t *testing.T) {
	ctx := context.Background()
	_, u := newTestServer(t)
	c := signIn(t, ctx, u, "ada@example.com")

	if _, err := c.Add(ctx, "", ""); err == nil {
		t.Fatalf("wanted error for empty symbol")
	}
	if _, err := c.Add(ctx, "../AAPL", ""); err == nil {
		t.Fatalf("wanted error for invalid symbol")
	}

	resp, err := http.Get(u.String() + api.UserSignInPath)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("wanted 405, got %d", resp.StatusCode)
	}
}

func TestToggleOverHTTP(t *testing.T) {
	ctx := context.Background()
	s, u := newTestServer(t)
	c := signIn(t, ctx, u, "ada@example.com")

	var sb strings.Builder
	opts := &toggle.Options{
		Window:   10 * time.Millisecond,
		Notifier: notify.Writer(&sb),
	}
	tg, err := toggle.New("AAPL", "Apple Inc.", false, c, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer tg.Close()

	tg.Click()
	tg.Click()
	tg.Click()

	wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
	defer wcancel()
	if err := tg.Wait(wctx); err != nil {
		t.Fatal(err)
	}

	userID, ok := s.Users().ResolveUserID(ctx, "ada@example.com")
	if !ok {
		t.Fatalf("could not resolve user id")
	}
	if symbols := s.Watchlist().Symbols(ctx, userID); fmt.Sprint(symbols) != "[AAPL]" {
		t.Fatalf("wanted [AAPL], got %v", symbols)
	}
	if want := "[SUCCESS] Stock added to Watchlist: Apple Inc. added to your watchlist\n"; sb.String() != want {
		t.Fatalf("want %q, got %q", want, sb.String())
	}
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	_, u := newTestServer(t)
	c := signIn(t, ctx, u, "ada@example.com")

	if err := c.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.List(ctx); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Fatalf("wanted ErrNotAuthenticated after sign out, got %v", err)
	}
}

func TestEnrichedViewInvalidatedDuringRebuild(t *testing.T) {
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	source := func(ctx context.Context, symbol string) (*quote.Quote, error) {
		if symbol == "AAPL" {
			once.Do(func() {
				close(started)
				<-release
			})
		}
		q := &quote.Quote{
			Symbol:        symbol,
			Company:       symbol,
			CurrentPrice:  decimal.RequireFromString("100"),
			ChangePercent: decimal.RequireFromString("0.5"),
			MarketCap:     decimal.RequireFromString("1000000000"),
			PERatio:       "20",
		}
		q.Fill()
		return q, nil
	}

	s, err := New(ctx, nil /* secrets */, kvmemdb.New(), &Options{QuoteSource: quote.SourceFunc(source)})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	user, err := s.Users().SignUp(ctx, "ada@example.com", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Watchlist().Add(ctx, user.ID, "AAPL", "Apple Inc"); err != nil {
		t.Fatal(err)
	}

	rebuilt := make(chan *api.WatchlistEnrichedResponse, 1)
	go func() {
		rebuilt <- s.enrichedView(ctx, user.ID)
	}()
	<-started

	// Same steps as the add handler while the rebuild is blocked on a quote.
	if _, err := s.Watchlist().Add(ctx, user.ID, "MSFT", "Microsoft"); err != nil {
		t.Fatal(err)
	}
	s.invalidateView(user.ID)

	close(release)
	<-rebuilt

	resp := s.enrichedView(ctx, user.ID)
	if len(resp.Entries) != 2 {
		t.Fatalf("wanted 2 entries after add, got %d", len(resp.Entries))
	}
}

func TestNewThenClose(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		s, err := New(ctx, nil /* secrets */, kvmemdb.New(), nil /* opts */)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}
}
