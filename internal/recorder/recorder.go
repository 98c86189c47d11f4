package recorder

import (
	"time"

	"FxSentinel/internal/model"
)

// SignalRecord is one persisted trade alert.
type SignalRecord struct {
	Time      time.Time
	Pair      string
	Timeframe string
	Action    model.Action
	Price     float64
	TrendEMA  float64
	EntryEMA  float64
}

// CycleRecord summarizes one evaluation cycle over the watchlist.
type CycleRecord struct {
	PairsChecked int
	PairsFailed  int
	Signals      int
}

// Recorder persists signal history for later inspection.
type Recorder interface {
	RecordSignal(sig *model.Signal) error
	RecordCycle(rec *CycleRecord) error
	RecentSignals(limit int) ([]SignalRecord, error)
	CountSignalsSince(t time.Time) (int, error)
	Close() error
}
