package usecase

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	domrepo "CurveDash/internal/domain/repository"
	applogger "CurveDash/pkg/logger"
)

// Prefetcher periodically re-syncs pinned tickers so dashboards open on warm
// data instead of waiting for an upstream round trip. Without any pins it
// falls back to every ticker already present in the cache.
type Prefetcher struct {
	sync      *SyncService
	favorites domrepo.FavoriteStore
	interval  time.Duration
	days      int
	logger    *applogger.Logger
	cron      *gocron.Scheduler
}

// NewPrefetcher creates a prefetcher refreshing a trailing window of days on
// the given interval.
func NewPrefetcher(sync *SyncService, favorites domrepo.FavoriteStore, interval time.Duration, days int, logger *applogger.Logger) *Prefetcher {
	return &Prefetcher{
		sync:      sync,
		favorites: favorites,
		interval:  interval,
		days:      days,
		logger:    logger,
		cron:      gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the refresh job and returns immediately.
func (p *Prefetcher) Start(ctx context.Context) error {
	_, err := p.cron.Every(p.interval).Do(func() {
		p.refreshAll(ctx)
	})
	if err != nil {
		return err
	}
	p.cron.StartAsync()
	p.logger.Info("prefetcher started",
		applogger.Duration("interval", p.interval),
		applogger.Int("days", p.days))
	return nil
}

// Stop halts the schedule. A refresh already in flight finishes on its own.
func (p *Prefetcher) Stop() {
	p.cron.Stop()
}

func (p *Prefetcher) refreshAll(ctx context.Context) {
	tickers := p.pinnedTickers(ctx)
	if len(tickers) == 0 {
		var err error
		tickers, err = p.sync.ListTickers(ctx, "")
		if err != nil {
			p.logger.Warn("prefetch ticker listing failed", applogger.Error(err))
			return
		}
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -p.days)

	refreshed := 0
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return
		}
		_, err := p.sync.GetOrSync(ctx, GetOrSyncParams{
			Ticker: ticker,
			Start:  start,
			End:    end,
		})
		if err != nil {
			p.logger.Warn("prefetch sync failed",
				applogger.String("ticker", ticker),
				applogger.Error(err))
			continue
		}
		refreshed++
	}

	p.logger.Info("prefetch cycle complete",
		applogger.Int("tickers", len(tickers)),
		applogger.Int("refreshed", refreshed))
}

func (p *Prefetcher) pinnedTickers(ctx context.Context) []string {
	if p.favorites == nil {
		return nil
	}
	pins, err := p.favorites.List(ctx, "default")
	if err != nil {
		p.logger.Warn("prefetch favorite listing failed", applogger.Error(err))
		return nil
	}
	seen := make(map[string]bool, len(pins))
	tickers := make([]string, 0, len(pins))
	for _, f := range pins {
		if !seen[f.Ticker] {
			seen[f.Ticker] = true
			tickers = append(tickers, f.Ticker)
		}
	}
	return tickers
}
