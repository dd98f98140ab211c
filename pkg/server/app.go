package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CurveDash/internal/handler/api"
	"CurveDash/internal/usecase"
	"CurveDash/pkg/cache"
	"CurveDash/pkg/config"
	xhttp "CurveDash/pkg/http"
	applogger "CurveDash/pkg/logger"
	"CurveDash/pkg/postgres"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	pgClient   *postgres.Client
	cacheSvc   cache.Service
	router     xhttp.Handler
	hub        *api.Hub
	liveFeed   *usecase.LiveFeed   // nil without a tick stream
	prefetcher *usecase.Prefetcher // nil when prefetch is disabled
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	pgClient *postgres.Client,
	cacheSvc cache.Service,
	router xhttp.Handler,
	hub *api.Hub,
	liveFeed *usecase.LiveFeed,
	prefetcher *usecase.Prefetcher,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		pgClient:   pgClient,
		cacheSvc:   cacheSvc,
		router:     router,
		hub:        hub,
		liveFeed:   liveFeed,
		prefetcher: prefetcher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.hub.Run(ctx)

	if a.liveFeed != nil {
		a.liveFeed.Start(ctx)
		a.logger.Info("live tick feed started",
			applogger.String("stream", a.cfg.Redis.Stream))
	}

	if a.prefetcher != nil {
		if err := a.prefetcher.Start(ctx); err != nil {
			a.logger.Error("prefetcher start failed", applogger.Error(err))
		}
	}

	a.httpServer = xhttp.NewServer(a.router,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	if a.prefetcher != nil {
		a.prefetcher.Stop()
	}

	if a.liveFeed != nil {
		if err := a.liveFeed.Stop(); err != nil {
			a.logger.Warn("live feed stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	a.pgClient.Close()

	a.logger.Info("shutdown complete")
	return nil
}
