// Copyright (c) 2025 BVK Chaitanya

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/bvk/stockwatch/api"
	"github.com/bvk/stockwatch/identity"
	"github.com/bvk/stockwatch/watchlist"
)

func TestStatusErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"Error":"not authenticated","Redirect":"/sign-in"}`))
			return
		}
		switch r.URL.Path {
		case api.WatchlistAddPath:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"Error":"persistence failure"}`))
		case api.WatchlistRemovePath:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"Error":"symbol cannot be empty"}`))
		default:
			w.Write([]byte(`{"Symbols":["AAPL","MSFT"]}`))
		}
	}))
	defer ts.Close()

	ctx := context.Background()
	u, _ := url.Parse(ts.URL)

	anon := New(u, nil, "")
	if _, err := anon.Add(ctx, "AAPL", ""); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Fatalf("wanted ErrNotAuthenticated, got %v", err)
	}

	c := New(u, nil, "secret")
	if _, err := c.Add(ctx, "AAPL", ""); !errors.Is(err, watchlist.ErrPersistence) {
		t.Fatalf("wanted ErrPersistence, got %v", err)
	}
	if _, err := c.Remove(ctx, ""); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted ErrInvalid, got %v", err)
	}
	symbols, err := c.Symbols(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" {
		t.Fatalf("unexpected symbols %v", symbols)
	}
}
