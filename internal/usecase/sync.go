package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"CurveDash/internal/domain/models"
	domrepo "CurveDash/internal/domain/repository"
	applogger "CurveDash/pkg/logger"
)

// incrementalEpsilon is added to the newest cached timestamp when computing
// the start of a tail fetch, so the boundary packet is not fetched twice.
const incrementalEpsilon = time.Second

// Normalizer turns raw upstream rows into canonical packets and reports how
// many rows were dropped for lacking a timestamp.
type Normalizer interface {
	Normalize(ticker string, rows []models.RawRow) ([]*models.DataPacket, int)
}

// SyncService is the read-through orchestrator: every history request goes
// through it, and it decides between serving the cache, fetching an
// incremental tail, or fetching the full range. Concurrent requests for the
// same (source, ticker, range) are coalesced into one upstream fetch.
type SyncService struct {
	store      domrepo.PacketStore
	sources    domrepo.SourceRegistry
	quote      domrepo.QuoteSource // nil when no upstream feed is configured
	normalizer Normalizer
	metrics    domrepo.Metrics
	logger     *applogger.Logger
	group      singleflight.Group
}

// NewSyncService creates the sync orchestrator. quote may be nil; the service
// then serves cache only.
func NewSyncService(
	store domrepo.PacketStore,
	sources domrepo.SourceRegistry,
	quote domrepo.QuoteSource,
	normalizer Normalizer,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *SyncService {
	return &SyncService{
		store:      store,
		sources:    sources,
		quote:      quote,
		normalizer: normalizer,
		metrics:    metrics,
		logger:     logger,
	}
}

// GetOrSyncParams identifies one history request. Source empty means any
// source on reads and the configured feed on fetches.
type GetOrSyncParams struct {
	Ticker       string
	Start        time.Time
	End          time.Time
	Source       string
	ForceRefresh bool
}

// GetOrSyncResult reports where the data came from.
type GetOrSyncResult struct {
	Ticker  string               `json:"ticker"`
	Source  string               `json:"source,omitempty"`
	Start   time.Time            `json:"start"`
	End     time.Time            `json:"end"`
	Count   int                  `json:"count"`
	Synced  bool                 `json:"synced"`
	Partial bool                 `json:"partial"`
	Dropped int                  `json:"dropped_rows,omitempty"`
	Packets []*models.DataPacket `json:"packets"`
}

// GetOrSync returns packets for the requested range, fetching from upstream
// only when the cache cannot satisfy the request. Running it twice in a row
// yields the same stored state; re-fetched packets land on their existing
// identity via upsert.
func (s *SyncService) GetOrSync(ctx context.Context, p GetOrSyncParams) (*GetOrSyncResult, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("%w: ticker required", models.ErrInvalidRequest)
	}
	if p.End.Before(p.Start) {
		return nil, fmt.Errorf("%w: start must not be after end", models.ErrInvalidRequest)
	}

	key := fmt.Sprintf("%s|%s|%d|%d|%t",
		p.Source, p.Ticker, p.Start.Unix(), p.End.Unix(), p.ForceRefresh)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.getOrSync(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return v.(*GetOrSyncResult), nil
}

func (s *SyncService) getOrSync(ctx context.Context, p GetOrSyncParams) (*GetOrSyncResult, error) {
	started := time.Now()
	source := p.Source

	cached, err := s.store.QueryRange(ctx, p.Ticker, p.Start, p.End, source)
	if err != nil {
		return nil, err
	}

	if !p.ForceRefresh && sufficient(cached, p.End) {
		s.metrics.RecordCacheHit("range")
		s.metrics.RecordSync(s.sourceLabel(source), "cache")
		return s.result(p, cached, false, false, 0), nil
	}

	// The feed only answers for its own source name. A filter naming any
	// other source is served from cache alone.
	if !s.canFetch(source) {
		if len(cached) == 0 {
			return nil, models.ErrNoData
		}
		s.metrics.RecordCacheHit("range")
		s.metrics.RecordSync(s.sourceLabel(source), "cache")
		return s.result(p, cached, false, false, 0), nil
	}

	fetchStart := p.Start
	incremental := false
	if !p.ForceRefresh && len(cached) > 0 {
		fetchStart = cached[len(cached)-1].Timestamp.Add(incrementalEpsilon)
		incremental = true
	}

	dropped, fetchErr := s.fetchAndStore(ctx, p.Ticker, fetchStart, p.End)
	if fetchErr != nil {
		if len(cached) > 0 {
			s.logger.Warn("upstream fetch failed, serving cached range",
				applogger.String("ticker", p.Ticker),
				applogger.Error(fetchErr))
			s.metrics.RecordSync(s.sourceLabel(source), "partial")
			return s.result(p, cached, false, true, 0), nil
		}
		s.metrics.RecordSync(s.sourceLabel(source), "error")
		// Both facts matter to the caller: nothing is cached, and why the
		// fetch could not fill the gap.
		return nil, fmt.Errorf("%w: %w", models.ErrNoData, fetchErr)
	}

	packets, err := s.store.QueryRange(ctx, p.Ticker, p.Start, p.End, source)
	if err != nil {
		return nil, err
	}
	if len(packets) == 0 {
		s.metrics.RecordSync(s.sourceLabel(source), "empty")
		return nil, models.ErrNoData
	}

	s.metrics.RecordSync(s.sourceLabel(source), "synced")
	s.metrics.RecordSyncDuration(s.sourceLabel(source), time.Since(started).Seconds())
	s.logger.Info("sync complete",
		applogger.String("ticker", p.Ticker),
		applogger.Bool("incremental", incremental),
		applogger.Int("packets", len(packets)),
		applogger.Int("dropped", dropped))

	return s.result(p, packets, true, false, dropped), nil
}

// fetchAndStore runs one fetch-normalize-upsert cycle and advances the
// source's last-sync marker on success.
func (s *SyncService) fetchAndStore(ctx context.Context, ticker string, start, end time.Time) (int, error) {
	if s.quote == nil {
		return 0, models.ErrSourceUnavailable
	}

	desc, err := s.sources.Get(ctx, s.quote.Name())
	if err != nil {
		return 0, err
	}
	if desc != nil && !desc.Enabled {
		return 0, models.ErrSourceDisabled
	}

	rows, err := s.quote.FetchRows(ctx, ticker, start, end)
	if err != nil {
		s.metrics.RecordFetch(s.quote.Name(), true)
		return 0, err
	}
	s.metrics.RecordFetch(s.quote.Name(), false)

	packets, dropped := s.normalizer.Normalize(ticker, rows)
	if dropped > 0 {
		s.metrics.RecordRowsDropped(s.quote.Name(), dropped)
		s.logger.Warn("rows dropped during normalization",
			applogger.String("ticker", ticker),
			applogger.Int("dropped", dropped))
	}

	if len(packets) > 0 {
		n, err := s.store.BulkUpsert(ctx, packets)
		if err != nil {
			return dropped, err
		}
		s.metrics.RecordRowsUpserted(s.quote.Name(), n)
	}

	if err := s.sources.TouchLastSync(ctx, s.quote.Name(), time.Now().UTC()); err != nil &&
		!errors.Is(err, models.ErrNoData) {
		s.logger.Warn("failed to advance last sync marker", applogger.Error(err))
	}
	return dropped, nil
}

// Latest returns the newest cached packet for ticker. It never contacts the
// upstream feed; callers wanting fresh data sync a range first.
func (s *SyncService) Latest(ctx context.Context, ticker, source string) (*models.DataPacket, error) {
	p, err := s.store.Latest(ctx, ticker, source)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.ErrNoData
	}
	s.metrics.RecordCacheHit("latest")
	return p, nil
}

// ListTickers returns the distinct tickers present in the cache.
func (s *SyncService) ListTickers(ctx context.Context, source string) ([]string, error) {
	return s.store.ListTickers(ctx, source)
}

// SourceStatus is a registry descriptor plus live reachability.
type SourceStatus struct {
	*models.DataSource
	Reachable bool `json:"reachable"`
}

// ListSources returns all registered sources with a reachability probe for
// the configured feed.
func (s *SyncService) ListSources(ctx context.Context) ([]*SourceStatus, error) {
	descs, err := s.sources.List(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]*SourceStatus, 0, len(descs))
	for _, d := range descs {
		st := &SourceStatus{DataSource: d}
		if s.quote != nil && d.Name == s.quote.Name() && d.Enabled {
			st.Reachable = s.quote.CheckReachable(ctx)
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (s *SyncService) result(p GetOrSyncParams, packets []*models.DataPacket, synced, partial bool, dropped int) *GetOrSyncResult {
	return &GetOrSyncResult{
		Ticker:  p.Ticker,
		Source:  p.Source,
		Start:   p.Start,
		End:     p.End,
		Count:   len(packets),
		Synced:  synced,
		Partial: partial,
		Dropped: dropped,
		Packets: packets,
	}
}

// canFetch reports whether the requested source filter can be filled by the
// configured feed. Empty means "any source", which the feed may serve.
func (s *SyncService) canFetch(source string) bool {
	return source == "" || (s.quote != nil && source == s.quote.Name())
}

func (s *SyncService) sourceLabel(source string) string {
	if source != "" {
		return source
	}
	if s.quote != nil {
		return s.quote.Name()
	}
	return "none"
}

// sufficient reports whether the cached range already covers the request:
// non-empty and the newest cached timestamp reaches the requested end.
func sufficient(cached []*models.DataPacket, end time.Time) bool {
	if len(cached) == 0 {
		return false
	}
	return !cached[len(cached)-1].Timestamp.Before(end)
}
