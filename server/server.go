// Copyright (c) 2023 BVK Chaitanya

// Package server binds the watchlist api to HTTP handlers and runs the
// background services of the stockwatch daemon.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/bvk/stockwatch/api"
	"github.com/bvk/stockwatch/ctxutil"
	"github.com/bvk/stockwatch/identity"
	"github.com/bvk/stockwatch/notify"
	"github.com/bvk/stockwatch/pushover"
	"github.com/bvk/stockwatch/quote"
	"github.com/bvk/stockwatch/syncmap"
	"github.com/bvk/stockwatch/telegram"
	"github.com/bvk/stockwatch/watchlist"
	"github.com/bvkgo/kv"
	"github.com/visvasity/topic"
)

type Server struct {
	cg ctxutil.CloseGroup

	opts Options

	db kv.Database

	users *identity.Store

	quotes *quote.Cache

	watchlist *watchlist.Service

	changes *topic.Receiver[*watchlist.Change]

	telegramClient *telegram.Client

	notifier notify.Notifier

	// viewMap caches enriched watchlist responses per user id.
	viewMap syncmap.Map[string, *viewItem]

	viewGens viewGens

	handlerMap map[string]http.Handler
}

func New(ctx context.Context, secrets *Secrets, db kv.Database, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if secrets == nil {
		secrets = new(Secrets)
	}
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	s := &Server{
		opts: *opts,
		db:   db,
	}
	defer func() {
		if status != nil {
			s.Close()
		}
	}()

	users, err := identity.New(db, &identity.Options{SessionTTL: opts.SessionTTL})
	if err != nil {
		return nil, fmt.Errorf("could not create identity store: %w", err)
	}
	s.users = users

	source := opts.QuoteSource
	if source == nil {
		if secrets.Finnhub == nil {
			slog.Warn("no finnhub credentials are configured; watchlists will not have quotes")
		} else {
			client, err := quote.New(secrets.Finnhub.Token, nil /* opts */)
			if err != nil {
				return nil, fmt.Errorf("could not create finnhub client: %w", err)
			}
			source = client
		}
	}
	if source != nil {
		s.quotes = quote.NewCache(source, opts.QuoteCacheTTL)
		source = s.quotes
	}

	wopts := &watchlist.Options{
		MaxFanOut: opts.MaxFanOut,
	}
	service, err := watchlist.New(watchlist.NewKVStore(db), source, users, wopts)
	if err != nil {
		return nil, fmt.Errorf("could not create watchlist service: %w", err)
	}
	s.watchlist = service

	changes, err := service.Changes()
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to watchlist changes: %w", err)
	}
	s.changes = changes

	changesCh, err := topic.ReceiveCh(changes)
	if err != nil {
		return nil, fmt.Errorf("could not get watchlist changes channel: %w", err)
	}

	notifiers := []notify.Notifier{notify.Log()}
	if secrets.Pushover != nil {
		client, err := pushover.New(secrets.Pushover, nil /* endpoint */)
		if err != nil {
			return nil, fmt.Errorf("could not create pushover client: %w", err)
		}
		notifiers = append(notifiers, notify.FromSender(client))
	}
	if secrets.Telegram != nil {
		client, err := telegram.New(ctx, db, secrets.Telegram)
		if err != nil {
			return nil, fmt.Errorf("could not create telegram client: %w", err)
		}
		s.telegramClient = client
		notifiers = append(notifiers, notify.FromSender(client))
		if err := s.addTelegramCommands(ctx); err != nil {
			return nil, err
		}
	}
	s.notifier = notify.Multi(notifiers...)

	s.handlerMap = s.newHandlerMap()

	s.cg.Go(func(ctx context.Context) {
		s.goWatchChanges(ctx, changesCh)
	})
	s.cg.Go(s.goPurge)
	return s, nil
}

func (s *Server) Close() error {
	if s.changes != nil {
		s.changes.Close()
	}
	s.cg.Close()

	if s.telegramClient != nil {
		s.telegramClient.Close()
	}
	if s.watchlist != nil {
		s.watchlist.Close()
	}
	return nil
}

// HandlerMap returns the api handlers keyed by their url paths.
func (s *Server) HandlerMap() map[string]http.Handler {
	return s.handlerMap
}

func (s *Server) Watchlist() *watchlist.Service {
	return s.watchlist
}

func (s *Server) Users() *identity.Store {
	return s.users
}

// SendMessage delivers a message through all configured notification
// services.
func (s *Server) SendMessage(ctx context.Context, at time.Time, format string, args ...interface{}) {
	n := &notify.Notification{
		Level: notify.Success,
		Title: fmt.Sprintf(format, args...),
		At:    at,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "could not send notification (ignored)", "message", n.Title, "err", err)
	}
}

func (s *Server) newHandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.UserSignUpPath:  httpPostJSONHandler(s.doSignUp),
		api.UserSignInPath:  httpPostJSONHandler(s.doSignIn),
		api.UserSignOutPath: s.authenticated(httpPostJSONHandler(s.doSignOut)),

		api.WatchlistAddPath:      s.authenticated(httpPostJSONHandler(s.doWatchlistAdd)),
		api.WatchlistRemovePath:   s.authenticated(httpPostJSONHandler(s.doWatchlistRemove)),
		api.WatchlistListPath:     s.authenticated(httpPostJSONHandler(s.doWatchlistList)),
		api.WatchlistEnrichedPath: s.authenticated(httpPostJSONHandler(s.doWatchlistEnriched)),
		api.WatchlistSymbolsPath:  s.authenticated(httpPostJSONHandler(s.doWatchlistSymbols)),
	}
}

func (s *Server) goWatchChanges(ctx context.Context, changesCh <-chan *watchlist.Change) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "panic", r)
			slog.Error(string(debug.Stack()))
			panic(r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changesCh:
			if !ok {
				return
			}
			s.invalidateView(change.UserID)
			if s.opts.NotifyChanges {
				verb := "removed from"
				if change.Added {
					verb = "added to"
				}
				s.SendMessage(ctx, change.At, "%s was %s the watchlist of user %s", change.Symbol, verb, change.UserID)
			}
		}
	}
}

func (s *Server) goPurge(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purge(ctx)
		}
	}
}

func (s *Server) purge(ctx context.Context) {
	s.purgeViews()
	if s.quotes != nil {
		s.quotes.Purge()
		slog.DebugContext(ctx, "purged expired quotes and views", "quotes", s.quotes.Len(), "views", s.viewMap.Len())
	}
	if n, err := s.users.PurgeExpired(ctx); err != nil {
		slog.WarnContext(ctx, "could not purge expired sessions (will retry)", "err", err)
	} else if n > 0 {
		slog.InfoContext(ctx, "purged expired sessions", "count", n)
	}
}
