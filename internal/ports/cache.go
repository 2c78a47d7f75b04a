package ports

import (
	"context"
	"time"

	"marketsim/internal/domain"
)

// CacheKey identifies one persisted cache unit: a single asset series from
// a single source at a single sampling interval.
type CacheKey struct {
	Asset    string
	Source   string
	Interval time.Duration
}

// IntervalDays returns the interval in whole days, as stored on disk.
func (k CacheKey) IntervalDays() int {
	d := int(k.Interval.Hours() / 24)
	if d < 1 {
		d = 1
	}
	return d
}

// CachedSeries is the stored form of a cache unit: the normalized bars plus
// the raw provider payload they were derived from.
type CachedSeries struct {
	Bars      []domain.PriceBar
	Raw       []byte
	FetchedAt time.Time
}

// BarCache persists bar series between runs. Load returns (nil, nil) on a
// clean miss; an error means the stored data is unreadable and the caller
// should re-fetch.
type BarCache interface {
	Load(ctx context.Context, key CacheKey) (*CachedSeries, error)
	Save(ctx context.Context, key CacheKey, raw []byte, bars []domain.PriceBar) error
	Close() error
}
