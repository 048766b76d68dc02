// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"sync"
	"time"

	"github.com/bvk/stockwatch/api"
)

type viewItem struct {
	resp      *api.WatchlistEnrichedResponse
	expiresAt time.Time
}

// viewGens counts the invalidations per user. A rebuilt view is cached only
// when no invalidation happened while it was being built.
type viewGens struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func (v *viewGens) get(userID string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.gens[userID]
}

// enrichedView returns the cached enriched watchlist of a user, rebuilding it
// when the cached copy has expired or was invalidated by a change.
func (s *Server) enrichedView(ctx context.Context, userID string) *api.WatchlistEnrichedResponse {
	now := time.Now()
	if item, ok := s.viewMap.Load(userID); ok && now.Before(item.expiresAt) {
		return item.resp
	}
	gen := s.viewGens.get(userID)

	resp := &api.WatchlistEnrichedResponse{Entries: []*api.WatchlistEnrichedEntry{}}
	for _, e := range s.watchlist.ListEnriched(ctx, userID) {
		entry := &api.WatchlistEnrichedEntry{
			Symbol:  e.Symbol,
			Company: e.Company,
			AddedAt: e.AddedAt,
		}
		if e.HasQuote {
			entry.Quote = &api.Quote{
				CurrentPrice:       e.Quote.CurrentPrice,
				PriceFormatted:     e.Quote.PriceFormatted,
				ChangeFormatted:    e.Quote.ChangeFormatted,
				ChangePercent:      e.Quote.ChangePercent,
				MarketCapFormatted: e.Quote.MarketCapFormatted,
				PERatio:            e.Quote.PERatio,
			}
		}
		resp.Entries = append(resp.Entries, entry)
	}

	// Responses with missing quotes are not cached so that a transient quote
	// failure is retried on the next request.
	for _, e := range resp.Entries {
		if e.Quote == nil {
			return resp
		}
	}

	s.viewGens.mu.Lock()
	defer s.viewGens.mu.Unlock()

	if s.viewGens.gens[userID] == gen {
		s.viewMap.Store(userID, &viewItem{resp: resp, expiresAt: now.Add(s.opts.QuoteCacheTTL)})
	}
	return resp
}

func (s *Server) invalidateView(userID string) {
	s.viewGens.mu.Lock()
	defer s.viewGens.mu.Unlock()

	if s.viewGens.gens == nil {
		s.viewGens.gens = make(map[string]uint64)
	}
	s.viewGens.gens[userID]++
	s.viewMap.Delete(userID)
}

func (s *Server) purgeViews() {
	now := time.Now()
	s.viewMap.Range(func(userID string, item *viewItem) bool {
		if !now.Before(item.expiresAt) {
			s.viewMap.CompareAndDelete(userID, item)
		}
		return true
	})
}
