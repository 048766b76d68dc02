// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bvk/stockwatch/quote"
	"github.com/visvasity/cli"
)

func (s *Server) addTelegramCommands(ctx context.Context) error {
	if s.telegramClient == nil {
		return nil
	}
	if err := s.telegramClient.AddCommand(ctx, "watchlist", "Prints the watchlist symbols of a user", s.watchlistTelegramCmd); err != nil {
		return fmt.Errorf("could not add watchlist command: %w", err)
	}
	if err := s.telegramClient.AddCommand(ctx, "quote", "Prints the latest quote for a symbol", s.quoteTelegramCmd); err != nil {
		return fmt.Errorf("could not add quote command: %w", err)
	}
	return nil
}

func (s *Server) watchlistTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (email) argument")
	}
	stdout := cli.Stdout(ctx)
	symbols := s.watchlist.SymbolsByEmail(ctx, args[0])
	if len(symbols) == 0 {
		fmt.Fprintf(stdout, "Watchlist of %s is empty", args[0])
		return nil
	}
	fmt.Fprint(stdout, strings.Join(symbols, ", "))
	return nil
}

func (s *Server) quoteTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (symbol) argument")
	}
	if s.quotes == nil {
		return fmt.Errorf("quote source is not configured")
	}
	symbol := quote.Normalize(args[0])
	if err := quote.CheckSymbol(symbol); err != nil {
		return err
	}
	q, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, quote.ErrNoData) {
			return fmt.Errorf("no market data for %s", symbol)
		}
		return err
	}
	stdout := cli.Stdout(ctx)
	fmt.Fprintf(stdout, "%s %s\nPrice: %s (%s)\nMarket Cap: %s\nP/E: %s",
		q.Symbol, q.Company, q.PriceFormatted, q.ChangeFormatted, q.MarketCapFormatted, q.PERatio)
	return nil
}
