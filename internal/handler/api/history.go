package api

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"CurveDash/internal/domain/models"
	domrepo "CurveDash/internal/domain/repository"
	"CurveDash/internal/usecase"
	"CurveDash/pkg/cache"
	xhttp "CurveDash/pkg/http"
	xlogger "CurveDash/pkg/logger"
	"CurveDash/pkg/util"
)

// DataHandler serves the history and sync endpoints.
type DataHandler struct {
	logger      *xlogger.Logger
	sync        *usecase.SyncService
	store       domrepo.PacketStore
	cache       cache.Service // nil disables the read cache
	cacheTTL    time.Duration
	defaultDays int
}

func NewDataHandler(
	logger *xlogger.Logger,
	sync *usecase.SyncService,
	store domrepo.PacketStore,
	readCache cache.Service,
	cacheTTL time.Duration,
	defaultDays int,
) *DataHandler {
	if defaultDays <= 0 {
		defaultDays = 30
	}
	return &DataHandler{
		logger:      logger,
		sync:        sync,
		store:       store,
		cache:       readCache,
		cacheTTL:    cacheTTL,
		defaultDays: defaultDays,
	}
}

func (h *DataHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/history", h.History)
	g.GET("/latest", h.Latest)
	g.GET("/tickers", h.Tickers)
	g.GET("/sources", h.Sources)
	g.POST("/sync", h.Sync)
	e.GET("/healthz", h.Healthz)
}

func (h *DataHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	start, end := h.resolveRange(req.Start, req.End, req.Days)
	res, err := h.sync.GetOrSync(c.Request().Context(), usecase.GetOrSyncParams{
		Ticker:       req.Ticker,
		Start:        start,
		End:          end,
		Source:       req.Source,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		return h.dataError(c, "history", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DataHandler) Latest(c echo.Context) error {
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "latest:" + req.Source + ":" + req.Ticker
	var cached models.DataPacket
	if h.cacheGet(c.Request().Context(), key, &cached) {
		return xhttp.SuccessResponse(c, &cached)
	}

	p, err := h.sync.Latest(c.Request().Context(), req.Ticker, req.Source)
	if err != nil {
		return h.dataError(c, "latest", err)
	}
	h.cacheSet(c.Request().Context(), key, p)
	return xhttp.SuccessResponse(c, p)
}

func (h *DataHandler) Tickers(c echo.Context) error {
	req := &models.TickersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "tickers:" + req.Source
	var cached []string
	if h.cacheGet(c.Request().Context(), key, &cached) {
		return xhttp.ListResponse(c, cached, int64(len(cached)))
	}

	tickers, err := h.sync.ListTickers(c.Request().Context(), req.Source)
	if err != nil {
		return h.dataError(c, "tickers", err)
	}
	h.cacheSet(c.Request().Context(), key, tickers)
	return xhttp.ListResponse(c, tickers, int64(len(tickers)))
}

func (h *DataHandler) Sources(c echo.Context) error {
	statuses, err := h.sync.ListSources(c.Request().Context())
	if err != nil {
		return h.dataError(c, "sources", err)
	}
	return xhttp.ListResponse(c, statuses, int64(len(statuses)))
}

// Sync forces a refresh for one ticker and range. Same path as History but
// always bypasses cache sufficiency.
func (h *DataHandler) Sync(c echo.Context) error {
	req := &models.SyncRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	start, end := h.resolveRange(req.Start, req.End, h.defaultDays)
	res, err := h.sync.GetOrSync(c.Request().Context(), usecase.GetOrSyncParams{
		Ticker:       req.Ticker,
		Start:        start,
		End:          end,
		Source:       req.Source,
		ForceRefresh: true,
	})
	if err != nil {
		return h.dataError(c, "sync", err)
	}
	// Any cached listings are stale now.
	h.cacheInvalidate(c.Request().Context(),
		"tickers:", "tickers:"+req.Source,
		"latest:"+req.Source+":"+req.Ticker, "latest::"+req.Ticker)
	return xhttp.SuccessResponse(c, res)
}

func (h *DataHandler) Healthz(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.ServiceUnavailableResponse(c, map[string]string{"status": "degraded"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// resolveRange fills missing bounds: end defaults to now, start to end minus
// days.
func (h *DataHandler) resolveRange(startStr, endStr string, days int) (time.Time, time.Time) {
	if days <= 0 {
		days = h.defaultDays
	}
	end := util.ParseTimeDefault(endStr, time.Now().UTC())
	start := util.ParseTimeDefault(startStr, end.AddDate(0, 0, -days))
	return start, end
}

func (h *DataHandler) dataError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	case errors.Is(err, models.ErrNoData):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no data for requested range").WithError(err))
	case errors.Is(err, models.ErrSourceUnavailable):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("data source unavailable").WithError(err))
	case errors.Is(err, models.ErrSourceDisabled):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("data source disabled").WithError(err))
	case models.IsRetryable(err):
		h.logger.Error(op+" storage error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.RetryableError("storage temporarily unavailable").WithError(err))
	default:
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}

func (h *DataHandler) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	err := h.cache.Get(ctx, key, dest)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("read cache get failed", xlogger.String("key", key), xlogger.Error(err))
		}
		return false
	}
	return true
}

func (h *DataHandler) cacheSet(ctx context.Context, key string, value interface{}) {
	if h.cache == nil || h.cacheTTL <= 0 {
		return
	}
	if err := h.cache.Set(ctx, key, value, h.cacheTTL); err != nil {
		h.logger.Warn("read cache set failed", xlogger.String("key", key), xlogger.Error(err))
	}
}

func (h *DataHandler) cacheInvalidate(ctx context.Context, keys ...string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, keys...); err != nil {
		h.logger.Warn("read cache invalidation failed", xlogger.Error(err))
	}
}
