package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"FxSentinel/internal/model"

	"github.com/stretchr/testify/require"
)

func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "bot_state.json")
}

func TestLoadState_FreshInstall(t *testing.T) {
	state, extra, err := LoadState(statePath(t))
	require.NoError(t, err)
	require.Nil(t, extra)
	require.False(t, state.Running)
	require.Equal(t, []string{"EURUSD"}, state.Pairs)
	require.Equal(t, 32, state.TrendEMA)
	require.Equal(t, 14, state.EntryExitEMA)
	require.Equal(t, "15min", state.Timeframe)
	require.Zero(t, state.DefaultChatID)
}

func TestLoadState_MissingKeysBackfilled(t *testing.T) {
	path := statePath(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"running": true, "pairs": ["GBPUSD"]}`), 0o644))

	state, _, err := LoadState(path)
	require.NoError(t, err)
	require.True(t, state.Running)
	require.Equal(t, []string{"GBPUSD"}, state.Pairs)
	require.Equal(t, 32, state.TrendEMA)
	require.Equal(t, 14, state.EntryExitEMA)
	require.Equal(t, "15min", state.Timeframe)
	require.NotNil(t, state.PerPair)
}

func TestSaveState_PreservesUnknownKeys(t *testing.T) {
	path := statePath(t)
	doc := `{"running": false, "pairs": ["EURUSD"], "custom_note": {"author": "me"}, "future_field": 42}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	state, extra, err := LoadState(path)
	require.NoError(t, err)
	require.Len(t, extra, 2)
	require.NoError(t, SaveState(path, state, extra))

	var onDisk map[string]json.RawMessage
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	require.JSONEq(t, `{"author": "me"}`, string(onDisk["custom_note"]))
	require.JSONEq(t, `42`, string(onDisk["future_field"]))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := statePath(t)
	state := model.DefaultState()
	state.Running = true
	state.Pairs = []string{"EURUSD", "GBPUSD"}
	state.DefaultChatID = 123456
	state.PerPair["EURUSD"] = model.PairState{InTrade: true, Side: model.SideBuy}
	state.PerPair["GBPUSD"] = model.PairState{}

	require.NoError(t, SaveState(path, state, nil))
	loaded, extra, err := LoadState(path)
	require.NoError(t, err)
	require.Equal(t, state, loaded)

	// save(load()) is a no-op byte-for-byte when nothing changed in between.
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, SaveState(path, loaded, extra))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestSaveState_AtomicReplace(t *testing.T) {
	path := statePath(t)
	require.NoError(t, SaveState(path, model.DefaultState(), nil))

	state := model.DefaultState()
	state.Running = true
	require.NoError(t, SaveState(path, state, nil))

	// No temp leftovers in the directory, and the document parses whole.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	loaded, _, err := LoadState(path)
	require.NoError(t, err)
	require.True(t, loaded.Running)
}

func TestManager_PairLifecycle(t *testing.T) {
	m, err := NewManager(statePath(t))
	require.NoError(t, err)

	added, err := m.AddPair("gbpusd")
	require.NoError(t, err)
	require.True(t, added)

	added, err = m.AddPair("GBPUSD")
	require.NoError(t, err)
	require.False(t, added)

	snap := m.Snapshot()
	require.Equal(t, []string{"EURUSD", "GBPUSD"}, snap.Pairs)
	require.Contains(t, snap.PerPair, "GBPUSD")

	removed, err := m.RemovePair("GBPUSD")
	require.NoError(t, err)
	require.True(t, removed)

	snap = m.Snapshot()
	require.Equal(t, []string{"EURUSD"}, snap.Pairs)
	require.NotContains(t, snap.PerPair, "GBPUSD")

	removed, err = m.RemovePair("GBPUSD")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestManager_TransitionPersists(t *testing.T) {
	path := statePath(t)
	m, err := NewManager(path)
	require.NoError(t, err)

	inTrade := model.PairState{InTrade: true, Side: model.SideSell}
	require.NoError(t, m.ApplyTransition("EURUSD", inTrade))

	// A second manager simulates a restart.
	m2, err := NewManager(path)
	require.NoError(t, err)
	require.Equal(t, inTrade, m2.Snapshot().PerPair["EURUSD"])
}

func TestManager_TransitionForUnwatchedPairIgnored(t *testing.T) {
	m, err := NewManager(statePath(t))
	require.NoError(t, err)

	require.NoError(t, m.ApplyTransition("USDJPY", model.PairState{InTrade: true, Side: model.SideBuy}))
	require.NotContains(t, m.Snapshot().PerPair, "USDJPY")
}

func TestManager_SnapshotIsolation(t *testing.T) {
	m, err := NewManager(statePath(t))
	require.NoError(t, err)

	snap := m.Snapshot()
	snap.Pairs = append(snap.Pairs, "USDJPY")
	snap.PerPair["EURUSD"] = model.PairState{InTrade: true, Side: model.SideBuy}

	fresh := m.Snapshot()
	require.Equal(t, []string{"EURUSD"}, fresh.Pairs)
	require.Equal(t, model.PairState{}, fresh.PerPair["EURUSD"])
}

func TestManager_Validation(t *testing.T) {
	m, err := NewManager(statePath(t))
	require.NoError(t, err)
	require.Error(t, m.SetTrendPeriod(0))
	require.Error(t, m.SetEntryPeriod(-3))
	require.NoError(t, m.SetTrendPeriod(50))
	require.NoError(t, m.SetEntryPeriod(9))
	snap := m.Snapshot()
	require.Equal(t, 50, snap.TrendEMA)
	require.Equal(t, 9, snap.EntryExitEMA)
}
