package recorder

import (
	"time"

	"FxSentinel/internal/model"
)

// NoopRecorder is used when no database is configured or sqlite fails to open.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordSignal(*model.Signal) error          { return nil }
func (NoopRecorder) RecordCycle(*CycleRecord) error            { return nil }
func (NoopRecorder) RecentSignals(int) ([]SignalRecord, error) { return nil, nil }
func (NoopRecorder) CountSignalsSince(time.Time) (int, error)  { return 0, nil }
func (NoopRecorder) Close() error                              { return nil }
