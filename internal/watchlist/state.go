package watchlist

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"PivotSentinel/internal/model"
)

// LoadState reads the watchlist from a JSON file. Returns an empty state if
// the file doesn't exist. A bare JSON array of symbols is accepted as well.
func LoadState(filePath string) (*model.WatchlistState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.WatchlistState{Symbols: []string{}}, nil
		}
		return nil, err
	}

	var state model.WatchlistState
	if err := json.Unmarshal(data, &state); err != nil {
		var symbols []string
		if listErr := json.Unmarshal(data, &symbols); listErr != nil {
			return nil, fmt.Errorf("decode watchlist %s: %w", filePath, err)
		}
		state.Symbols = symbols
	}
	if state.Symbols == nil {
		state.Symbols = []string{}
	}
	return &state, nil
}

// SaveState writes the watchlist to a JSON file.
func SaveState(filePath string, state *model.WatchlistState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
