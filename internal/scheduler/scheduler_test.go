package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"FxSentinel/internal/collector"
	"FxSentinel/internal/model"
	"FxSentinel/internal/recorder"
	"FxSentinel/internal/store"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	messages []string
	fail     bool
}

func (f *fakeNotifier) Deliver(_ context.Context, _ int64, text string) error {
	if f.fail {
		return errors.New("telegram unreachable")
	}
	f.messages = append(f.messages, text)
	return nil
}

type fakeRecorder struct {
	recorder.NoopRecorder
	signals []model.Signal
	cycles  []recorder.CycleRecord
}

func (f *fakeRecorder) RecordSignal(sig *model.Signal) error {
	f.signals = append(f.signals, *sig)
	return nil
}

func (f *fakeRecorder) RecordCycle(rec *recorder.CycleRecord) error {
	f.cycles = append(f.cycles, *rec)
	return nil
}

func bars(closes ...float64) []model.Bar {
	out := make([]model.Bar, len(closes))
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = model.Bar{Time: base.Add(time.Duration(i) * 15 * time.Minute), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func newTestScheduler(t *testing.T, fetcher *collector.MockFetcher) (*Scheduler, *store.Manager, *fakeNotifier, *fakeRecorder) {
	t.Helper()
	m, err := store.NewManager(filepath.Join(t.TempDir(), "bot_state.json"))
	require.NoError(t, err)
	require.NoError(t, m.SetChatID(42))
	require.NoError(t, m.SetRunning(true))

	n := &fakeNotifier{}
	rec := &fakeRecorder{}
	s := NewScheduler(context.Background(), collector.NewCollector(fetcher), m, n, rec, zap.NewNop(), time.Minute)
	return s, m, n, rec
}

// A jump from below both EMAs to above them triggers a long entry with the
// default 32/14 periods.
func entryBars() []model.Bar { return bars(1.0, 1.2) }

// From long, a drop back under the entry EMA triggers the exit.
func exitBars() []model.Bar { return bars(1.2, 0.9) }

func TestRunCycle_EntrySignal(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{"EURUSD": entryBars()}}
	s, m, n, rec := newTestScheduler(t, fetcher)

	s.RunCycleNow()

	require.Len(t, n.messages, 1)
	require.Contains(t, n.messages[0], "BUY NOW")
	require.Contains(t, n.messages[0], "EURUSD")

	require.Len(t, rec.signals, 1)
	require.Equal(t, model.ActionEnterLong, rec.signals[0].Action)

	st := m.Snapshot().PerPair["EURUSD"]
	require.True(t, st.InTrade)
	require.Equal(t, model.SideBuy, st.Side)
}

func TestRunCycle_EntryThenExit(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{"EURUSD": entryBars()}}
	s, m, n, _ := newTestScheduler(t, fetcher)

	s.RunCycleNow()
	require.Len(t, n.messages, 1)

	// Same data again: already long, no repeat entry.
	s.RunCycleNow()
	require.Len(t, n.messages, 1)

	fetcher.Bars["EURUSD"] = exitBars()
	s.RunCycleNow()
	require.Len(t, n.messages, 2)
	require.Contains(t, n.messages[1], "EXIT BUY")
	require.Equal(t, model.PairState{}, m.Snapshot().PerPair["EURUSD"])
}

func TestRunCycle_OneFailingPairDoesNotBlockOthers(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Bars: map[string][]model.Bar{"GBPUSD": entryBars()},
		Err:  map[string]error{"EURUSD": errors.New("provider down")},
	}
	s, m, n, rec := newTestScheduler(t, fetcher)
	added, err := m.AddPair("GBPUSD")
	require.NoError(t, err)
	require.True(t, added)

	s.RunCycleNow()

	require.Len(t, n.messages, 1)
	require.Contains(t, n.messages[0], "GBPUSD")

	require.Len(t, rec.cycles, 1)
	require.Equal(t, 2, rec.cycles[0].PairsChecked)
	require.Equal(t, 1, rec.cycles[0].PairsFailed)
	require.Equal(t, 1, rec.cycles[0].Signals)

	// The failing pair's state is untouched.
	require.Equal(t, model.PairState{}, m.Snapshot().PerPair["EURUSD"])
}

func TestRunCycle_DeliveryFailureStillPersists(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{"EURUSD": entryBars()}}
	s, m, n, rec := newTestScheduler(t, fetcher)
	n.fail = true

	s.RunCycleNow()

	st := m.Snapshot().PerPair["EURUSD"]
	require.True(t, st.InTrade)
	require.Equal(t, model.SideBuy, st.Side)
	require.Len(t, rec.signals, 1)
}

func TestRunCycle_NoCrossNoNoise(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{"EURUSD": bars(1.0, 1.0, 1.0, 1.0)}}
	s, m, n, rec := newTestScheduler(t, fetcher)

	s.RunCycleNow()

	require.Empty(t, n.messages)
	require.Empty(t, rec.signals)
	require.Equal(t, model.PairState{}, m.Snapshot().PerPair["EURUSD"])
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{"EURUSD": bars(1.0, 1.0)}}
	m, err := store.NewManager(filepath.Join(t.TempDir(), "bot_state.json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(ctx, collector.NewCollector(fetcher), m, &fakeNotifier{}, &fakeRecorder{}, zap.NewNop(), time.Minute)

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}
