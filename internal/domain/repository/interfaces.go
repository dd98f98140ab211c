package repository

import (
	"context"
	"time"

	"CurveDash/internal/domain/models"
)

// PacketStore is the persistent cache of canonical packets. Identity is the
// (source, ticker, timestamp) triple; the store's native unique-key upsert
// serializes conflicting writes, no application-level locking.
type PacketStore interface {
	// Upsert inserts the packet or, when its identity already exists,
	// replaces value/unit/metadata/raw. Never creates a duplicate row.
	Upsert(ctx context.Context, p *models.DataPacket) error
	// BulkUpsert applies all upserts in a single transaction and returns the
	// number of packets processed. Any failure rolls back the whole batch.
	BulkUpsert(ctx context.Context, packets []*models.DataPacket) (int, error)
	// QueryRange returns packets with start <= ts <= end in ascending
	// timestamp order. Empty source matches all sources. No match is an
	// empty slice, not an error.
	QueryRange(ctx context.Context, ticker string, start, end time.Time, source string) ([]*models.DataPacket, error)
	// Latest returns the most recent packet for ticker, or nil.
	Latest(ctx context.Context, ticker, source string) (*models.DataPacket, error)
	// ListTickers returns the distinct tickers stored, optionally filtered
	// by source.
	ListTickers(ctx context.Context, source string) ([]string, error)
	Health(ctx context.Context) error
}

// SourceRegistry tracks data-source descriptors.
type SourceRegistry interface {
	Get(ctx context.Context, name string) (*models.DataSource, error)
	List(ctx context.Context) ([]*models.DataSource, error)
	ListEnabled(ctx context.Context) ([]*models.DataSource, error)
	// TouchLastSync records a successful fetch-and-store cycle.
	TouchLastSync(ctx context.Context, name string, at time.Time) error
}

// FavoriteStore persists user-pinned tickers.
type FavoriteStore interface {
	List(ctx context.Context, userID string) ([]*models.Favorite, error)
	Add(ctx context.Context, f *models.Favorite) (*models.Favorite, error)
	Remove(ctx context.Context, id int64) error
}

// QuoteSource fetches raw rows for a formula and date range from an external
// feed. Implementations may be unavailable; the sync service holds this as a
// nullable dependency and handles absence explicitly.
type QuoteSource interface {
	// Name identifies the feed ("curveseries").
	Name() string
	// FetchRows returns raw rows for the inclusive date range. An empty
	// result is not an error. Row schema is unstable between calls and is
	// interpreted only by the normalizer.
	FetchRows(ctx context.Context, formula string, start, end time.Time) ([]models.RawRow, error)
	// CheckReachable returns false, not an error, when the upstream service
	// is simply not running.
	CheckReachable(ctx context.Context) bool
}

// TickStream delivers live tick payloads for pass-through fan-out. No
// ordering or delivery guarantees.
type TickStream interface {
	Consume(ctx context.Context) (<-chan []byte, <-chan error)
	Close() error
}

// Metrics records operational signals.
type Metrics interface {
	RecordSync(source, outcome string)
	RecordSyncDuration(source string, seconds float64)
	RecordFetch(source string, failed bool)
	RecordRowsUpserted(source string, n int)
	RecordRowsDropped(source string, n int)
	RecordCacheHit(kind string)
}
