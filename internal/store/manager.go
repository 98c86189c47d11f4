package store

import (
	"encoding/json"
	"strings"
	"sync"

	"FxSentinel/internal/model"

	"github.com/pkg/errors"
)

// Manager owns the persisted bot state. All reads go through Snapshot and
// all writes go through the mutators, each of which saves the document
// before returning, so the scheduler and the Telegram command handlers can
// touch the state concurrently.
type Manager struct {
	mu    sync.Mutex
	path  string
	state *model.BotState
	extra map[string]json.RawMessage
}

// NewManager loads (or initializes) the state document at path.
func NewManager(path string) (*Manager, error) {
	state, extra, err := LoadState(path)
	if err != nil {
		return nil, err
	}
	// Every watched pair gets a trade-state entry up front, like the
	// original state file layout.
	for _, p := range state.Pairs {
		if _, ok := state.PerPair[p]; !ok {
			state.PerPair[p] = model.PairState{}
		}
	}
	m := &Manager{path: path, state: state, extra: extra}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Snapshot returns a deep copy of the current state. The scheduler takes one
// snapshot per cycle and must not retain it across cycles.
func (m *Manager) Snapshot() *model.BotState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// AddPair adds a pair to the watchlist with a fresh flat trade state.
// Returns false if the pair is already watched.
func (m *Manager) AddPair(pair string) (bool, error) {
	pair = strings.ToUpper(pair)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.state.Pairs {
		if p == pair {
			return false, nil
		}
	}
	m.state.Pairs = append(m.state.Pairs, pair)
	m.state.PerPair[pair] = model.PairState{}
	return true, m.save()
}

// RemovePair drops a pair from the watchlist along with its trade state.
// Returns false if the pair was not watched.
func (m *Manager) RemovePair(pair string) (bool, error) {
	pair = strings.ToUpper(pair)
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, p := range m.state.Pairs {
		if p == pair {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	m.state.Pairs = append(m.state.Pairs[:idx], m.state.Pairs[idx+1:]...)
	delete(m.state.PerPair, pair)
	return true, m.save()
}

// SetTrendPeriod updates the slow trend EMA period.
func (m *Manager) SetTrendPeriod(period int) error {
	if period < 1 {
		return errors.New("period must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.TrendEMA = period
	return m.save()
}

// SetEntryPeriod updates the fast entry/exit EMA period.
func (m *Manager) SetEntryPeriod(period int) error {
	if period < 1 {
		return errors.New("period must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.EntryExitEMA = period
	return m.save()
}

// SetTimeframe updates the bar interval used for fetching.
func (m *Manager) SetTimeframe(tf string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Timeframe = tf
	return m.save()
}

// SetRunning flips the monitoring flag; the scheduler reads it every cycle.
func (m *Manager) SetRunning(running bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Running = running
	return m.save()
}

// SetChatID records the Telegram chat that receives alerts.
func (m *Manager) SetChatID(chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.DefaultChatID = chatID
	return m.save()
}

// ApplyTransition persists a pair's new trade state after a crossover.
// Pairs unwatched mid-cycle are ignored rather than resurrected.
func (m *Manager) ApplyTransition(pair string, st model.PairState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.PerPair[pair]; !ok {
		return nil
	}
	m.state.PerPair[pair] = st
	return m.save()
}

func (m *Manager) save() error {
	return SaveState(m.path, m.state, m.extra)
}
