package calculator

import (
	"errors"

	"FxSentinel/internal/model"
)

// EMASeries computes an exponential moving average aligned 1:1 with the input.
// The series is seeded with the first close rather than an SMA, so the first
// values carry a seeding bias that decays with more lookback; callers wanting
// less bias must supply a longer history.
func EMASeries(closes []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, errors.New("period must be positive")
	}
	if len(closes) == 0 {
		return nil, nil
	}

	k := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(closes))
	out[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = closes[i]*k + out[i-1]*(1-k)
	}
	return out, nil
}

// EMAFromBars computes the EMA over the close prices of a bar series.
func EMAFromBars(bars []model.Bar, period int) ([]float64, error) {
	return EMASeries(model.Closes(bars), period)
}
