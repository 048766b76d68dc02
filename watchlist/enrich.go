// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bvk/stockwatch/gobs"
	"github.com/bvk/stockwatch/quote"
)

// EnrichedEntry is a read-only projection of a watchlist entry merged with
// its live quote. HasQuote is false when the quote source had no data (or
// failed) for the symbol, in which case Quote is the zero value.
type EnrichedEntry struct {
	UserID  string
	Symbol  string
	Company string
	AddedAt time.Time

	HasQuote bool
	Quote    quote.Quote
}

func newEnrichedEntry(e *gobs.WatchlistEntry) *EnrichedEntry {
	return &EnrichedEntry{
		UserID:  e.UserID,
		Symbol:  e.Symbol,
		Company: e.Company,
		AddedAt: e.AddedAt,
	}
}

// ListEnriched returns ListRaw entries joined with live quotes. Quotes are
// fetched concurrently, at most Options.MaxFanOut at a time, and the call
// waits for every fetch. The result has exactly one projection per raw entry,
// in the same order, regardless of individual fetch failures.
func (s *Service) ListEnriched(ctx context.Context, userID string) []*EnrichedEntry {
	entries := s.ListRaw(ctx, userID)
	result := make([]*EnrichedEntry, len(entries))
	if len(entries) == 0 {
		return result
	}

	sem := make(chan struct{}, s.opts.MaxFanOut)
	var wg sync.WaitGroup
	for i, entry := range entries {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			result[i] = s.enrich(ctx, entry)
		}()
	}
	wg.Wait()
	return result
}

func (s *Service) enrich(ctx context.Context, entry *gobs.WatchlistEntry) (ee *EnrichedEntry) {
	ee = newEnrichedEntry(entry)
	if s.source == nil {
		return ee
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "CAUGHT PANIC in quote source (ignored)", "symbol", entry.Symbol, "panic", r)
			slog.Error(string(debug.Stack()))
			ee = newEnrichedEntry(entry)
		}
	}()

	qctx, qcancel := context.WithTimeout(ctx, s.opts.QuoteTimeout)
	defer qcancel()

	q, err := s.source.GetQuote(qctx, entry.Symbol)
	if err != nil {
		if errors.Is(err, quote.ErrNoData) {
			slog.WarnContext(ctx, "no quote data for watchlist symbol", "symbol", entry.Symbol)
		} else {
			slog.WarnContext(ctx, "could not fetch quote for watchlist symbol", "symbol", entry.Symbol, "err", err)
		}
		return ee
	}
	if q == nil {
		slog.WarnContext(ctx, "quote source returned no data", "symbol", entry.Symbol)
		return ee
	}
	ee.HasQuote, ee.Quote = true, *q
	if len(ee.Company) == 0 {
		ee.Company = q.Company
	}
	return ee
}
