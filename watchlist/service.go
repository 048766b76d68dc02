// Copyright (c) 2025 BVK Chaitanya

// Package watchlist implements the server side of a user's stock watchlist:
// uniqueness-preserving add/remove, addedAt-ordered listing and the read-time
// join with live quotes.
//
// Mutations fail loudly (errors wrap ErrPersistence) because the user's
// intent did not take effect. Read paths fail soft: a broken store or quote
// source produces an empty or degraded result, never an error, so that a
// watchlist view cannot break the page it is embedded in.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/bvk/stockwatch/gobs"
	"github.com/bvk/stockwatch/quote"
	"github.com/visvasity/topic"
)

var (
	// ErrAlreadyExists is the expected outcome of adding a symbol that is
	// already in the user's watchlist.
	ErrAlreadyExists = fmt.Errorf("stock already in watchlist: %w", os.ErrExist)

	// ErrPersistence reports that a mutation could not be stored.
	ErrPersistence = errors.New("persistence failure")
)

const (
	MessageAdded         = "Stock added to Watchlist"
	MessageRemoved       = "Stock removed from Watchlist"
	MessageAlreadyExists = "Stock already in Watchlist"
)

// Result is the outcome of a mutation that reached the store.
type Result struct {
	Success bool
	Message string
}

// Change is published after every successful mutation so that cached
// renderings of the user's watchlist can be invalidated.
type Change struct {
	UserID string
	Symbol string
	Added  bool
	At     time.Time
}

// UserResolver maps an external identifier (email) to a user id. Resolvers
// report lookup failures as not-found.
type UserResolver interface {
	ResolveUserID(ctx context.Context, email string) (string, bool)
}

type Service struct {
	opts Options

	store Store

	source quote.Source

	users UserResolver

	changes *topic.Topic[*Change]
}

// New creates a watchlist service. Quote source and user resolver are
// optional; without a source all enriched entries are degraded and without a
// resolver SymbolsByEmail always returns an empty list.
func New(store Store, source quote.Source, users UserResolver, opts *Options) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	s := &Service{
		opts:    *opts,
		store:   store,
		source:  source,
		users:   users,
		changes: topic.New[*Change](),
	}
	return s, nil
}

func (s *Service) Close() error {
	s.changes.Close()
	return nil
}

// Changes returns a receiver for the mutation signals. Callers must close
// the receiver when they are done.
func (s *Service) Changes() (*topic.Receiver[*Change], error) {
	return topic.Subscribe(s.changes, 0, false /* includeRecent */)
}

// Add inserts symbol into the user's watchlist. A duplicate is not an error:
// it is reported as an unsuccessful Result.
func (s *Service) Add(ctx context.Context, userID, symbol, company string) (*Result, error) {
	symbol = quote.Normalize(symbol)
	if err := quote.CheckSymbol(symbol); err != nil {
		return nil, err
	}
	entry := &gobs.WatchlistEntry{
		UserID:  userID,
		Symbol:  symbol,
		Company: strings.TrimSpace(company),
		AddedAt: s.opts.Now(),
	}
	if err := s.store.Create(ctx, entry); err != nil {
		if errors.Is(err, os.ErrExist) {
			return &Result{Success: false, Message: MessageAlreadyExists}, nil
		}
		if errors.Is(err, os.ErrInvalid) {
			return nil, err
		}
		slog.ErrorContext(ctx, "could not add stock to watchlist", "user", userID, "symbol", symbol, "err", err)
		return nil, fmt.Errorf("could not add %q to watchlist: %w: %w", symbol, ErrPersistence, err)
	}

	s.changes.Send(&Change{UserID: userID, Symbol: symbol, Added: true, At: entry.AddedAt})
	return &Result{Success: true, Message: MessageAdded}, nil
}

// Remove deletes symbol from the user's watchlist. Removing a symbol that is
// not in the watchlist succeeds.
func (s *Service) Remove(ctx context.Context, userID, symbol string) (*Result, error) {
	symbol = quote.Normalize(symbol)
	if err := quote.CheckSymbol(symbol); err != nil {
		return nil, err
	}
	if err := s.store.DeleteOne(ctx, userID, symbol); err != nil {
		if errors.Is(err, os.ErrInvalid) {
			return nil, err
		}
		slog.ErrorContext(ctx, "could not remove stock from watchlist", "user", userID, "symbol", symbol, "err", err)
		return nil, fmt.Errorf("could not remove %q from watchlist: %w: %w", symbol, ErrPersistence, err)
	}

	s.changes.Send(&Change{UserID: userID, Symbol: symbol, Added: false, At: s.opts.Now()})
	return &Result{Success: true, Message: MessageRemoved}, nil
}

// ListRaw returns the user's entries, oldest-added first. Store failures are
// logged and produce an empty list.
func (s *Service) ListRaw(ctx context.Context, userID string) []*gobs.WatchlistEntry {
	entries, err := s.store.Find(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "could not fetch watchlist", "user", userID, "err", err)
		return []*gobs.WatchlistEntry{}
	}
	sortEntries(entries)
	return entries
}

// Symbols returns the symbols in the user's watchlist in ListRaw order.
func (s *Service) Symbols(ctx context.Context, userID string) []string {
	entries := s.ListRaw(ctx, userID)
	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	return symbols
}

// SymbolsByEmail is similar to Symbols, but identifies the user by email. An
// unknown email or a failed lookup produces an empty list.
func (s *Service) SymbolsByEmail(ctx context.Context, email string) []string {
	email = strings.TrimSpace(email)
	if len(email) == 0 || s.users == nil {
		return []string{}
	}
	userID, ok := s.users.ResolveUserID(ctx, email)
	if !ok {
		return []string{}
	}
	return s.Symbols(ctx, userID)
}

func sortEntries(entries []*gobs.WatchlistEntry) {
	slices.SortStableFunc(entries, func(a, b *gobs.WatchlistEntry) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Symbol, b.Symbol)
	})
}
