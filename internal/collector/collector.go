package collector

import (
	"context"
	"math"
	"time"

	"FxSentinel/internal/calculator"
	"FxSentinel/internal/model"

	"github.com/pkg/errors"
)

// MockFetcher returns controllable fixed data for development and testing.
// Pairs without explicit bars fall back to a generated series around Price.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.Bar
	Err   map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchIntraday(_ context.Context, pair, _ string) ([]model.Bar, error) {
	if err := m.Err[pair]; err != nil {
		return nil, err
	}
	if bars, ok := m.Bars[pair]; ok {
		return bars, nil
	}
	if m.Price > 0 {
		return GenerateBars(m.Price, 100), nil
	}
	return nil, errors.Errorf("mock: no data for %s", pair)
}

// GenerateBars produces a deterministic drifting series for dev runs.
func GenerateBars(basePrice float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.0005)
		bars[i] = model.Bar{
			Time:  time.Now().Add(-time.Duration(count-i) * 15 * time.Minute),
			Open:  p * 0.9995,
			High:  p * 1.0005,
			Low:   p * 0.9990,
			Close: p,
		}
	}
	return bars
}

// Snapshot holds everything the crossover machine needs for one pair:
// the two most recent closes and both EMA values at the latest bar.
type Snapshot struct {
	Pair        string
	PrevClose   float64
	LatestClose float64
	TrendEMA    float64
	EntryEMA    float64
	BarCount    int
	LatestTime  time.Time
}

// Collector fetches price history and computes the EMA snapshot per pair.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches the intraday series for a pair and computes both EMAs.
// With a single bar the previous close degrades to the latest close, which
// makes a crossover impossible for that cycle.
func (c *Collector) Collect(ctx context.Context, pair, timeframe string, trendPeriod, entryPeriod int) (*Snapshot, error) {
	bars, err := c.Fetcher.FetchIntraday(ctx, pair, timeframe)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", pair)
	}
	if len(bars) == 0 {
		return nil, errors.Errorf("no bars for %s", pair)
	}

	closes := model.Closes(bars)
	for _, v := range closes {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Errorf("malformed close in %s series", pair)
		}
	}

	trend, err := calculator.EMASeries(closes, trendPeriod)
	if err != nil {
		return nil, errors.Wrap(err, "trend EMA")
	}
	entry, err := calculator.EMASeries(closes, entryPeriod)
	if err != nil {
		return nil, errors.Wrap(err, "entry EMA")
	}

	n := len(bars)
	snap := &Snapshot{
		Pair:        pair,
		PrevClose:   closes[n-1],
		LatestClose: closes[n-1],
		TrendEMA:    trend[n-1],
		EntryEMA:    entry[n-1],
		BarCount:    n,
		LatestTime:  bars[n-1].Time,
	}
	if n >= 2 {
		snap.PrevClose = closes[n-2]
	}
	return snap, nil
}
