package cache

// sqlite.go — persisted bar cache.
//
// One cache unit per (asset, source, interval): the `series` row keeps the
// raw provider payload so normalization can be replayed without re-fetching,
// and `bars` keeps the normalized daily rows, one per date. Merges are plain
// upserts — a re-fetch overwrites colliding dates and never duplicates them.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"marketsim/internal/domain"
	"marketsim/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS series (
    asset         TEXT    NOT NULL,
    source        TEXT    NOT NULL,
    interval_days INTEGER NOT NULL,
    raw           BLOB,
    fetched_at    TEXT    NOT NULL,
    PRIMARY KEY (asset, source, interval_days)
);

CREATE TABLE IF NOT EXISTS bars (
    asset         TEXT    NOT NULL,
    source        TEXT    NOT NULL,
    interval_days INTEGER NOT NULL,
    date          TEXT    NOT NULL,
    open          REAL    NOT NULL DEFAULT 0,
    close         REAL    NOT NULL DEFAULT 0,
    high          REAL    NOT NULL DEFAULT 0,
    low           REAL    NOT NULL DEFAULT 0,
    volume        REAL    NOT NULL DEFAULT 0,
    dividend      REAL    NOT NULL DEFAULT 0,
    pe            REAL    NOT NULL DEFAULT 0,
    PRIMARY KEY (asset, source, interval_days, date)
);

CREATE INDEX IF NOT EXISTS idx_bars_lookup ON bars(asset, source, interval_days, date);
`

// SQLite implements ports.BarCache on a local SQLite file (pure Go, no CGo).
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the cache database at the given path and
// applies the schema. Use ":memory:" for tests.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache.NewSQLite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache.NewSQLite: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Load reads one cache unit. A clean miss returns (nil, nil); unparseable
// rows return an error so the caller can fall back to a full re-fetch.
func (s *SQLite) Load(ctx context.Context, key ports.CacheKey) (*ports.CachedSeries, error) {
	var raw []byte
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT raw, fetched_at FROM series WHERE asset = ? AND source = ? AND interval_days = ?`,
		key.Asset, key.Source, key.IntervalDays(),
	).Scan(&raw, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache.Load: series row: %w", err)
	}

	unit := &ports.CachedSeries{Raw: raw}
	if unit.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt); err != nil {
		return nil, fmt.Errorf("cache.Load: fetched_at %q: %w", fetchedAt, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, close, high, low, volume, dividend, pe
		FROM bars
		WHERE asset = ? AND source = ? AND interval_days = ?
		ORDER BY date ASC
	`, key.Asset, key.Source, key.IntervalDays())
	if err != nil {
		return nil, fmt.Errorf("cache.Load: query bars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.PriceBar
		var date string
		if err := rows.Scan(&date, &b.Open, &b.Close, &b.High, &b.Low, &b.Volume, &b.Dividend, &b.PE); err != nil {
			return nil, fmt.Errorf("cache.Load: scan bar: %w", err)
		}
		if b.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("cache.Load: bar date %q: %w", date, err)
		}
		unit.Bars = append(unit.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache.Load: rows: %w", err)
	}
	return unit, nil
}

// Save upserts one cache unit: the raw payload and every bar, keyed by date.
func (s *SQLite) Save(ctx context.Context, key ports.CacheKey, raw []byte, bars []domain.PriceBar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache.Save: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO series (asset, source, interval_days, raw, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(asset, source, interval_days) DO UPDATE SET
			raw        = excluded.raw,
			fetched_at = excluded.fetched_at
	`, key.Asset, key.Source, key.IntervalDays(), raw, now); err != nil {
		return fmt.Errorf("cache.Save: upsert series: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (asset, source, interval_days, date, open, close, high, low, volume, dividend, pe)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset, source, interval_days, date) DO UPDATE SET
			open     = excluded.open,
			close    = excluded.close,
			high     = excluded.high,
			low      = excluded.low,
			volume   = excluded.volume,
			dividend = excluded.dividend,
			pe       = excluded.pe
	`)
	if err != nil {
		return fmt.Errorf("cache.Save: prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			key.Asset, key.Source, key.IntervalDays(),
			domain.Day(b.Date).Format(time.RFC3339),
			b.Open, b.Close, b.High, b.Low, b.Volume, b.Dividend, b.PE,
		); err != nil {
			return fmt.Errorf("cache.Save: upsert bar %s: %w", b.Date.Format(time.DateOnly), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache.Save: commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
