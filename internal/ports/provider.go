package ports

import (
	"context"
	"time"

	"marketsim/internal/domain"
)

// BarProvider fetches historical daily bars for an asset from an external
// source. Implementations must return bars ordered by date with at least a
// close price; missing volume or dividend fields default to zero. The raw
// payload is returned alongside so the cache can replay normalization
// without re-fetching.
type BarProvider interface {
	// Source identifies the provider in cache keys (e.g. "cryptocompare",
	// "local").
	Source() string

	// FetchBars retrieves bars covering at least [start, end] when the
	// source has them. Fetching more than requested is fine — the price
	// history store trims on query.
	FetchBars(ctx context.Context, asset string, start, end time.Time, interval time.Duration) ([]domain.PriceBar, []byte, error)
}
