// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bvk/stockwatch/api"
	"github.com/bvk/stockwatch/identity"
)

func (s *Server) doSignUp(ctx context.Context, req *api.UserSignUpRequest) (*api.UserSignUpResponse, error) {
	user, err := s.users.SignUp(ctx, req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	return &api.UserSignUpResponse{UserID: user.ID}, nil
}

func (s *Server) doSignIn(ctx context.Context, req *api.UserSignInRequest) (*api.UserSignInResponse, error) {
	session, err := s.users.SignIn(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	resp := &api.UserSignInResponse{
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}
	return resp, nil
}

func (s *Server) doSignOut(ctx context.Context, req *api.UserSignOutRequest) (*api.UserSignOutResponse, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, identity.ErrNotAuthenticated
	}
	if err := s.users.SignOut(ctx, session.Token); err != nil {
		return nil, fmt.Errorf("could not sign out: %w", err)
	}
	return &api.UserSignOutResponse{}, nil
}

func (s *Server) doWatchlistAdd(ctx context.Context, req *api.WatchlistAddRequest) (*api.WatchlistAddResponse, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, identity.ErrNotAuthenticated
	}
	result, err := s.watchlist.Add(ctx, session.UserID, req.Symbol, req.Company)
	if err != nil {
		return nil, err
	}
	s.invalidateView(session.UserID)
	return &api.WatchlistAddResponse{Success: result.Success, Message: result.Message}, nil
}

func (s *Server) doWatchlistRemove(ctx context.Context, req *api.WatchlistRemoveRequest) (*api.WatchlistRemoveResponse, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, identity.ErrNotAuthenticated
	}
	result, err := s.watchlist.Remove(ctx, session.UserID, req.Symbol)
	if err != nil {
		return nil, err
	}
	s.invalidateView(session.UserID)
	return &api.WatchlistRemoveResponse{Success: result.Success, Message: result.Message}, nil
}

func (s *Server) doWatchlistList(ctx context.Context, req *api.WatchlistListRequest) (*api.WatchlistListResponse, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, identity.ErrNotAuthenticated
	}
	resp := &api.WatchlistListResponse{Entries: []*api.WatchlistEntry{}}
	for _, e := range s.watchlist.ListRaw(ctx, session.UserID) {
		resp.Entries = append(resp.Entries, &api.WatchlistEntry{
			Symbol:  e.Symbol,
			Company: e.Company,
			AddedAt: e.AddedAt,
		})
	}
	return resp, nil
}

func (s *Server) doWatchlistEnriched(ctx context.Context, req *api.WatchlistEnrichedRequest) (*api.WatchlistEnrichedResponse, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, identity.ErrNotAuthenticated
	}
	return s.enrichedView(ctx, session.UserID), nil
}

func (s *Server) doWatchlistSymbols(ctx context.Context, req *api.WatchlistSymbolsRequest) (*api.WatchlistSymbolsResponse, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, identity.ErrNotAuthenticated
	}
	if email := strings.TrimSpace(req.Email); len(email) != 0 && !strings.EqualFold(email, session.Email) {
		return nil, fmt.Errorf("cannot read watchlist of another user: %w", os.ErrPermission)
	}
	return &api.WatchlistSymbolsResponse{Symbols: s.watchlist.Symbols(ctx, session.UserID)}, nil
}
