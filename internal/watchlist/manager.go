package watchlist

import (
	"errors"
	"strings"
	"sync"

	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/metrics"
	"PivotSentinel/internal/model"
)

// ErrInvalidSymbol is returned for blank or malformed symbols.
var ErrInvalidSymbol = errors.New("invalid symbol")

// Manager guards the watchlist file.
type Manager struct {
	mu       sync.Mutex
	state    *model.WatchlistState
	filePath string
}

// NewManager creates a Manager, loading state from disk.
func NewManager(filePath string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	metrics.WatchlistSize.Set(float64(len(state.Symbols)))
	return &Manager{state: state, filePath: filePath}, nil
}

// Normalize upper-cases and validates a symbol.
func Normalize(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || len(s) > 15 || strings.ContainsAny(s, " /\\?#&") {
		return "", ErrInvalidSymbol
	}
	return s, nil
}

// List returns a copy of the symbols in insertion order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.state.Symbols...)
}

// Contains reports whether symbol is on the watchlist.
func (m *Manager) Contains(symbol string) bool {
	s, err := Normalize(symbol)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(s) >= 0
}

// Add appends symbol; added is false if it was already present.
func (m *Manager) Add(symbol string) (added bool, err error) {
	s, err := Normalize(symbol)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(s) >= 0 {
		logger.Debugf("%s already on watchlist", s)
		return false, nil
	}
	m.state.Symbols = append(m.state.Symbols, s)
	if err := m.save(); err != nil {
		m.state.Symbols = m.state.Symbols[:len(m.state.Symbols)-1]
		return false, err
	}
	logger.Infof("added %s to watchlist", s)
	return true, nil
}

// Remove drops symbol; removed is false if it was not present.
func (m *Manager) Remove(symbol string) (removed bool, err error) {
	s, err := Normalize(symbol)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(s)
	if i < 0 {
		return false, nil
	}
	prev := m.state.Symbols
	m.state.Symbols = append(append([]string{}, prev[:i]...), prev[i+1:]...)
	if err := m.save(); err != nil {
		m.state.Symbols = prev
		return false, err
	}
	logger.Infof("removed %s from watchlist", s)
	return true, nil
}

func (m *Manager) indexOf(s string) int {
	for i, v := range m.state.Symbols {
		if v == s {
			return i
		}
	}
	return -1
}

func (m *Manager) save() error {
	if err := SaveState(m.filePath, m.state); err != nil {
		return err
	}
	metrics.WatchlistSize.Set(float64(len(m.state.Symbols)))
	return nil
}
