// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"time"

	"github.com/shopspring/decimal"
)

const WatchlistListPath = "/watchlist/list"

type WatchlistListRequest struct {
}

type WatchlistEntry struct {
	Symbol  string
	Company string
	AddedAt time.Time
}

type WatchlistListResponse struct {
	Entries []*WatchlistEntry
}

const WatchlistEnrichedPath = "/watchlist/enriched"

type WatchlistEnrichedRequest struct {
}

// Quote carries the live market data of an enriched entry.
type Quote struct {
	CurrentPrice       decimal.Decimal
	PriceFormatted     string
	ChangeFormatted    string
	ChangePercent      decimal.Decimal
	MarketCapFormatted string
	PERatio            string
}

type WatchlistEnrichedEntry struct {
	Symbol  string
	Company string
	AddedAt time.Time

	// Quote is nil when no market data was available for the symbol.
	Quote *Quote `json:",omitempty"`
}

type WatchlistEnrichedResponse struct {
	Entries []*WatchlistEnrichedEntry
}

const WatchlistSymbolsPath = "/watchlist/symbols"

// WatchlistSymbolsRequest looks up the watchlist symbols of the signed-in
// user. Email is optional and, when set, must match the session's email.
type WatchlistSymbolsRequest struct {
	Email string `json:",omitempty"`
}

type WatchlistSymbolsResponse struct {
	Symbols []string
}
