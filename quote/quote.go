// Copyright (c) 2025 BVK Chaitanya

// Package quote implements the market-data side of the watchlist: a Quote
// type, the Source interface used for read-time enrichment, a Finnhub REST
// client and a TTL cache in front of any Source.
package quote

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoData is returned by a Source when it has no market data for a symbol.
var ErrNoData = fmt.Errorf("no quote data: %w", os.ErrNotExist)

// Quote holds live market data for a symbol. It is never persisted.
type Quote struct {
	Symbol   string
	Company  string
	Currency string

	CurrentPrice  decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	MarketCap     decimal.Decimal

	// PERatio is the formatted price-to-earnings ratio, or "—" when the source
	// doesn't report one.
	PERatio string

	PriceFormatted     string
	ChangeFormatted    string
	MarketCapFormatted string
}

// Source returns current market data for a symbol. Implementations return an
// error wrapping ErrNoData when the symbol has no data.
type Source interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context, symbol string) (*Quote, error)

func (f SourceFunc) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	return f(ctx, symbol)
}

// Normalize returns the canonical (upper case, trimmed) form of a symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// CheckSymbol validates a normalized symbol. Symbols become database key
// components, so path separators and whitespace are rejected.
func CheckSymbol(symbol string) error {
	if len(symbol) == 0 {
		return fmt.Errorf("symbol cannot be empty: %w", os.ErrInvalid)
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol %q is too long: %w", symbol, os.ErrInvalid)
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '^' || r == '=' || r == ':':
		default:
			return fmt.Errorf("symbol %q has invalid character %q: %w", symbol, r, os.ErrInvalid)
		}
	}
	return nil
}

// Fill computes the formatted fields from the numeric fields.
func (q *Quote) Fill() {
	if len(q.Currency) == 0 {
		q.Currency = "USD"
	}
	q.PriceFormatted = FormatPrice(q.CurrentPrice, q.Currency)
	q.ChangeFormatted = FormatChangePercent(q.ChangePercent)
	q.MarketCapFormatted = FormatMarketCap(q.MarketCap, q.Currency)
	if len(q.PERatio) == 0 {
		q.PERatio = NoValue
	}
}

func (q *Quote) Clone() *Quote {
	v := *q
	return &v
}
