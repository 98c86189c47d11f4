package model

// Side identifies the direction of an open trade.
// The values match the side field of the persisted state document.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PairState tracks the trade state of a single watched pair.
// Invariant: Side == SideNone exactly when InTrade is false.
type PairState struct {
	InTrade bool `json:"in_trade"`
	Side    Side `json:"side"`
}

// BotState is the full persisted document: configuration plus the
// per-pair trade state map. It is written as a single JSON snapshot.
type BotState struct {
	Running       bool                 `json:"running"`
	Pairs         []string             `json:"pairs"`
	TrendEMA      int                  `json:"trend_ema"`
	EntryExitEMA  int                  `json:"entry_exit_ema"`
	Timeframe     string               `json:"timeframe"`
	DefaultChatID int64                `json:"default_chat_id"`
	PerPair       map[string]PairState `json:"per_pair"`
}

// DefaultState returns the compiled-in defaults used for a fresh install
// and to backfill keys missing from an older state file.
func DefaultState() *BotState {
	return &BotState{
		Running:      false,
		Pairs:        []string{"EURUSD"},
		TrendEMA:     32,
		EntryExitEMA: 14,
		Timeframe:    "15min",
		PerPair:      map[string]PairState{},
	}
}

// Clone returns a deep copy safe to hand out across the store boundary.
func (s *BotState) Clone() *BotState {
	out := *s
	out.Pairs = append([]string(nil), s.Pairs...)
	out.PerPair = make(map[string]PairState, len(s.PerPair))
	for k, v := range s.PerPair {
		out.PerPair[k] = v
	}
	return &out
}
