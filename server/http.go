// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/bvk/stockwatch/api"
	"github.com/bvk/stockwatch/gobs"
	"github.com/bvk/stockwatch/identity"
	"github.com/bvk/stockwatch/watchlist"
)

// maxRequestSize limits the size of json request bodies.
const maxRequestSize = 64 * 1024

type checker interface {
	Check() error
}

func httpPostJSONHandler[REQ, RESP any](fun func(context.Context, *REQ) (*RESP, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s is not allowed", r.Method))
			return
		}
		req := new(REQ)
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize)).Decode(req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("could not decode request: %w", err))
			return
		}
		if c, ok := any(req).(checker); ok {
			if err := c.Check(); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		resp, err := fun(r.Context(), req)
		if err != nil {
			writeError(w, statusCode(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, identity.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, watchlist.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, os.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, os.ErrExist):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not write json response (ignored)", "err", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	resp := &api.ErrorResponse{Error: err.Error()}
	if code == http.StatusUnauthorized {
		resp.Redirect = api.SignInRedirect
	}
	writeJSON(w, code, resp)
}

type sessionKeyType struct{}

var sessionKey sessionKeyType

func sessionFromContext(ctx context.Context) (*gobs.Session, bool) {
	v, ok := ctx.Value(sessionKey).(*gobs.Session)
	return v, ok
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// authenticated rejects requests without a valid session with
// http.StatusUnauthorized and a redirect to the sign-in page.
func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.users.GetSession(r.Context(), bearerToken(r))
		if err != nil {
			if !errors.Is(err, identity.ErrNotAuthenticated) {
				slog.ErrorContext(r.Context(), "could not check session", "err", err)
			}
			writeError(w, http.StatusUnauthorized, identity.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}
