// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
)

func TestServer(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
	id, err := s.StartTCP(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Port == 0 {
		t.Fatalf("wanted the chosen port in addr")
	}

	s.AddHandlers(map[string]http.Handler{
		"/hello": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "hello")
		}),
	})

	get := func(path string) (int, string) {
		resp, err := http.Get("http://" + addr.String() + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(data)
	}

	if code, body := get("/hello"); code != http.StatusOK || body != "hello" {
		t.Fatalf("unexpected response %d %q", code, body)
	}
	if !s.RemoveHandler("/hello") {
		t.Fatalf("wanted handler to be removed")
	}
	if s.RemoveHandler("/hello") {
		t.Fatalf("wanted false for a missing handler")
	}
	if code, _ := get("/hello"); code != http.StatusNotFound {
		t.Fatalf("wanted 404 after removal, got %d", code)
	}

	if err := s.Stop(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(id); err == nil {
		t.Fatalf("wanted error when stopping twice")
	}
}
