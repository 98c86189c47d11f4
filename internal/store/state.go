package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"FxSentinel/internal/model"

	"github.com/pkg/errors"
)

// knownKeys are the top-level keys of the state document that map onto
// BotState fields. Anything else found in the file is preserved verbatim
// across save cycles so manual edits and future fields survive.
var knownKeys = map[string]bool{
	"running":         true,
	"pairs":           true,
	"trend_ema":       true,
	"entry_exit_ema":  true,
	"timeframe":       true,
	"default_chat_id": true,
	"per_pair":        true,
}

// LoadState reads the state document from disk. A missing file is a valid
// fresh install and yields the compiled-in defaults; a present file has any
// missing keys backfilled from those defaults.
func LoadState(path string) (*model.BotState, map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultState(), nil, nil
		}
		return nil, nil, errors.Wrap(err, "read state file")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.Wrap(err, "parse state file")
	}

	state := model.DefaultState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, nil, errors.Wrap(err, "decode state file")
	}

	// Decoding into the defaults leaves absent keys backfilled already;
	// explicit nulls and empty strings still need the defaults restored.
	defaults := model.DefaultState()
	if state.Pairs == nil {
		state.Pairs = defaults.Pairs
	}
	if state.PerPair == nil {
		state.PerPair = defaults.PerPair
	}
	if state.Timeframe == "" {
		state.Timeframe = defaults.Timeframe
	}

	extra := make(map[string]json.RawMessage)
	for k, v := range raw {
		if !knownKeys[k] {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		extra = nil
	}
	return state, extra, nil
}

// SaveState writes the full state document atomically: the snapshot is
// written to a temp file in the same directory and renamed over the old one,
// so a crash mid-write leaves either the old or the new document readable.
func SaveState(path string, state *model.BotState, extra map[string]json.RawMessage) error {
	known, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "marshal state")
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(known, &doc); err != nil {
		return errors.Wrap(err, "rebuild state document")
	}
	for k, v := range extra {
		if _, ok := doc[k]; !ok {
			doc[k] = v
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal state document")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create state dir")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp state file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temp state file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "sync temp state file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp state file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "chmod temp state file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "replace state file")
	}
	return nil
}
