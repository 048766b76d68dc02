// Copyright (c) 2025 BVK Chaitanya

package toggle

import (
	"context"

	"github.com/bvk/stockwatch/watchlist"
)

type serviceMutator struct {
	service *watchlist.Service
	userID  string
}

// ServiceMutator returns a Mutator that updates the watchlist of userID
// directly through an in-process service.
func ServiceMutator(s *watchlist.Service, userID string) Mutator {
	return &serviceMutator{service: s, userID: userID}
}

func (m *serviceMutator) Add(ctx context.Context, symbol, company string) (*watchlist.Result, error) {
	return m.service.Add(ctx, m.userID, symbol, company)
}

func (m *serviceMutator) Remove(ctx context.Context, symbol string) (*watchlist.Result, error) {
	return m.service.Remove(ctx, m.userID, symbol)
}
