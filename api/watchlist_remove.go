// Copyright (c) 2025 BVK Chaitanya

package api

const WatchlistRemovePath = "/watchlist/remove"

type WatchlistRemoveRequest struct {
	Symbol string
}

type WatchlistRemoveResponse struct {
	Success bool
	Message string
}
