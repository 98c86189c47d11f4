package collector

import (
	"context"

	"FxSentinel/internal/model"
)

// Fetcher defines the interface for fetching intraday price history.
// Implementations must return bars in ascending time order and report
// any transport or format problem as an error.
type Fetcher interface {
	FetchIntraday(ctx context.Context, pair, interval string) ([]model.Bar, error)
	Name() string
}
