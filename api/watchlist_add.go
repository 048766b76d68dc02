// Copyright (c) 2025 BVK Chaitanya

package api

const WatchlistAddPath = "/watchlist/add"

type WatchlistAddRequest struct {
	Symbol  string
	Company string
}

type WatchlistAddResponse struct {
	Success bool
	Message string
}
