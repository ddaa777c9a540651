package model

import "time"

// WatchlistState is the persisted watchlist.
type WatchlistState struct {
	Symbols   []string  `json:"symbols"`
	UpdatedAt time.Time `json:"updated_at"`
}
