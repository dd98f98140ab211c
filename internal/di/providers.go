package di

import (
	"context"
	"fmt"
	"os"
	"time"

	domrepo "CurveDash/internal/domain/repository"
	"CurveDash/internal/handler/api"
	internalrepo "CurveDash/internal/repository"
	"CurveDash/internal/service/curveseries"
	"CurveDash/internal/usecase"
	"CurveDash/pkg/cache"
	"CurveDash/pkg/config"
	xhttp "CurveDash/pkg/http"
	applogger "CurveDash/pkg/logger"
	"CurveDash/pkg/metrics"
	"CurveDash/pkg/postgres"
	"CurveDash/pkg/server"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS market_data (
		id BIGSERIAL PRIMARY KEY,
		source VARCHAR(50) NOT NULL,
		ticker VARCHAR(200) NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		unit VARCHAR(50) NOT NULL DEFAULT 'unit',
		metadata JSONB NOT NULL DEFAULT '{}',
		raw JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (source, ticker, ts)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_data_ticker_ts ON market_data (ticker, ts)`,
	`CREATE TABLE IF NOT EXISTS data_sources (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		enabled BOOLEAN NOT NULL DEFAULT true,
		config JSONB NOT NULL DEFAULT '{}',
		last_sync TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_favorites (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(100) NOT NULL,
		ticker VARCHAR(200) NOT NULL,
		display_name VARCHAR(200) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, ticker)
	)`,
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvidePostgresClient creates a Postgres client and applies the schema.
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := postgres.NewClient(ctx,
		postgres.WithHost(cfg.Postgres.Host),
		postgres.WithPort(cfg.Postgres.Port),
		postgres.WithDatabase(cfg.Postgres.Database),
		postgres.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		postgres.WithSSLMode(cfg.Postgres.SSLMode),
		postgres.WithPool(cfg.Postgres.MaxConns, cfg.Postgres.MinConns, cfg.Postgres.ConnLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}

	if err := client.InitSchema(ctx, schemaStatements); err != nil {
		client.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return client, nil
}

// ProvideCache creates the read cache, falling back to in-process memory when
// Redis is not reachable.
func ProvideCache(cfg *config.Config, logger *applogger.Logger) cache.Service {
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory read cache", applogger.Error(err))
		return cache.NewMemoryCache()
	}
	return rc
}

// ProvidePacketStore creates the Postgres packet store.
func ProvidePacketStore(pg *postgres.Client) domrepo.PacketStore {
	return internalrepo.NewPostgresPacketStore(pg.Pool())
}

// ProvideSourceRegistry creates the source registry and seeds the configured
// feed's descriptor.
func ProvideSourceRegistry(pg *postgres.Client, cfg *config.Config) (domrepo.SourceRegistry, error) {
	reg := internalrepo.NewPostgresSourceRegistry(pg.Pool())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	seeder := reg.(*internalrepo.PostgresSourceRegistry)
	err := seeder.Ensure(ctx, curveseries.SourceName, cfg.CurveSeries.Enabled, map[string]interface{}{
		"bridge_url": cfg.CurveSeries.BridgeURL,
	})
	if err != nil {
		return nil, fmt.Errorf("seed source registry: %w", err)
	}
	return reg, nil
}

// ProvideFavoriteStore creates the favorite store.
func ProvideFavoriteStore(pg *postgres.Client) domrepo.FavoriteStore {
	return internalrepo.NewPostgresFavoriteStore(pg.Pool())
}

// ProvideQuoteSource creates the bridge client, or nil when the feed is
// switched off entirely.
func ProvideQuoteSource(cfg *config.Config, logger *applogger.Logger) domrepo.QuoteSource {
	if !cfg.CurveSeries.Enabled {
		return nil
	}
	return curveseries.NewClient(cfg.CurveSeries.BridgeURL, logger,
		curveseries.WithTimeout(cfg.CurveSeries.Timeout),
		curveseries.WithMaxRPS(cfg.CurveSeries.MaxRPS),
		curveseries.WithProbeFormula(cfg.CurveSeries.ProbeFormula),
	)
}

// ProvideNormalizer creates the row normalizer.
func ProvideNormalizer() usecase.Normalizer {
	return curveseries.NewNormalizer(curveseries.SourceName)
}

// ProvideSyncService creates the sync orchestrator.
func ProvideSyncService(
	store domrepo.PacketStore,
	sources domrepo.SourceRegistry,
	quote domrepo.QuoteSource,
	normalizer usecase.Normalizer,
	m domrepo.Metrics,
	logger *applogger.Logger,
) *usecase.SyncService {
	return usecase.NewSyncService(store, sources, quote, normalizer, m, logger)
}

// ProvideTickStream creates the Redis tick stream when the read cache is
// backed by Redis and a stream name is configured.
func ProvideTickStream(cfg *config.Config, cacheSvc cache.Service, logger *applogger.Logger) domrepo.TickStream {
	rc, ok := cacheSvc.(*cache.RedisCache)
	if !ok || cfg.Redis.Stream == "" {
		return nil
	}
	consumer := cfg.Redis.Consumer
	if consumer == "" {
		host, _ := os.Hostname()
		consumer = "curvedash-" + host
	}
	return internalrepo.NewRedisTickStream(rc.Client(), cfg.Redis.Stream, cfg.Redis.Group, consumer, logger)
}

// ProvideHub creates the websocket hub.
func ProvideHub(logger *applogger.Logger) *api.Hub {
	return api.NewHub(logger)
}

// ProvideLiveFeed pipes the tick stream into the hub. Nil stream means no
// live feed.
func ProvideLiveFeed(stream domrepo.TickStream, hub *api.Hub, logger *applogger.Logger) *usecase.LiveFeed {
	if stream == nil {
		return nil
	}
	return usecase.NewLiveFeed(stream, hub, logger)
}

// ProvidePrefetcher creates the background refresher when enabled.
func ProvidePrefetcher(cfg *config.Config, sync *usecase.SyncService, favorites domrepo.FavoriteStore, logger *applogger.Logger) *usecase.Prefetcher {
	if !cfg.Prefetch.Enabled {
		return nil
	}
	interval := cfg.Prefetch.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	days := cfg.Prefetch.Days
	if days <= 0 {
		days = cfg.Sync.DefaultDays
	}
	return usecase.NewPrefetcher(sync, favorites, interval, days, logger)
}

// ProvideRouter assembles all HTTP handlers.
func ProvideRouter(
	cfg *config.Config,
	logger *applogger.Logger,
	sync *usecase.SyncService,
	store domrepo.PacketStore,
	cacheSvc cache.Service,
	favorites domrepo.FavoriteStore,
	hub *api.Hub,
) xhttp.Handler {
	data := api.NewDataHandler(logger, sync, store, cacheSvc, cfg.Redis.ReadCacheTTL, cfg.Sync.DefaultDays)
	favs := api.NewFavoritesHandler(logger, favorites)
	live := api.NewLiveHandler(logger, hub)
	return api.NewRouter(data, favs, live)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	pg *postgres.Client,
	cacheSvc cache.Service,
	router xhttp.Handler,
	hub *api.Hub,
	liveFeed *usecase.LiveFeed,
	prefetcher *usecase.Prefetcher,
) *server.App {
	return server.New(cfg, logger, pg, cacheSvc, router, hub, liveFeed, prefetcher)
}
