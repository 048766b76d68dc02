// Copyright (c) 2025 BVK Chaitanya

package quote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	s := httptest.NewServer(handler)
	t.Cleanup(s.Close)

	u, err := url.Parse(s.URL + "/api/v1")
	if err != nil {
		t.Fatal(err)
	}
	c, err := New("test-token", &Options{BaseURL: u, RequestsPerSecond: 1000})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClientGetQuote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/quote", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("symbol") != "AAPL" {
			io.WriteString(w, `{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`)
			return
		}
		io.WriteString(w, `{"c":189.5,"d":2.1,"dp":1.1206,"h":190,"l":187,"o":188,"pc":187.4,"t":1700000000}`)
	})
	mux.HandleFunc("/api/v1/stock/profile2", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name":"Apple Inc","ticker":"AAPL","currency":"USD","marketCapitalization":2950000}`)
	})
	mux.HandleFunc("/api/v1/stock/metric", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"metric":{"peTTM":29.41}}`)
	})
	c := newTestClient(t, mux)

	q, err := c.GetQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatal(err)
	}
	if q.Symbol != "AAPL" || q.Company != "Apple Inc" {
		t.Fatalf("unexpected quote identity: %#v", q)
	}
	if q.PriceFormatted != "$189.50" {
		t.Fatalf("wanted $189.50, got %q", q.PriceFormatted)
	}
	if q.ChangeFormatted != "+1.12%" {
		t.Fatalf("wanted +1.12%%, got %q", q.ChangeFormatted)
	}
	if q.MarketCapFormatted != "$2.95T" {
		t.Fatalf("wanted $2.95T, got %q", q.MarketCapFormatted)
	}
	if q.PERatio != "29.4" {
		t.Fatalf("wanted 29.4, got %q", q.PERatio)
	}

	if _, err := c.GetQuote(context.Background(), "ZZZZ"); !errors.Is(err, ErrNoData) {
		t.Fatalf("wanted ErrNoData, got %v", err)
	}
}

func TestClientOptionalCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/quote", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"c":410.2,"d":-1,"dp":-0.24,"t":1700000000}`)
	})
	mux.HandleFunc("/api/v1/stock/profile2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/v1/stock/metric", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"metric":{}}`)
	})
	c := newTestClient(t, mux)

	q, err := c.GetQuote(context.Background(), "MSFT")
	if err != nil {
		t.Fatal(err)
	}
	if q.Company != "" || q.MarketCapFormatted != NoValue || q.PERatio != NoValue {
		t.Fatalf("wanted empty optional fields, got %#v", q)
	}
	if q.ChangeFormatted != "-0.24%" {
		t.Fatalf("wanted -0.24%%, got %q", q.ChangeFormatted)
	}
}

func TestClientRetriesThrottled(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/quote", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `{"c":10,"d":0,"dp":0,"t":1700000000}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c := newTestClient(t, mux)

	if _, err := c.GetQuote(context.Background(), "IBM"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("wanted 2 quote calls, got %d", n)
	}
}
