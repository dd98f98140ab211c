package api

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"CurveDash/internal/domain/models"
	domrepo "CurveDash/internal/domain/repository"
	xhttp "CurveDash/pkg/http"
	xlogger "CurveDash/pkg/logger"
)

// defaultUserID is used while the dashboard has no auth layer.
const defaultUserID = "default"

// FavoritesHandler serves the pinned-ticker CRUD endpoints.
type FavoritesHandler struct {
	logger *xlogger.Logger
	store  domrepo.FavoriteStore
}

func NewFavoritesHandler(logger *xlogger.Logger, store domrepo.FavoriteStore) *FavoritesHandler {
	return &FavoritesHandler{logger: logger, store: store}
}

func (h *FavoritesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/favorites")
	g.GET("", h.List)
	g.POST("", h.Add)
	g.DELETE("/:id", h.Remove)
}

func (h *FavoritesHandler) List(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = defaultUserID
	}

	favorites, err := h.store.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("list favorites failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.RetryableError("storage temporarily unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, favorites, int64(len(favorites)))
}

func (h *FavoritesHandler) Add(c echo.Context) error {
	req := &models.AddFavoriteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	f, err := h.store.Add(c.Request().Context(), &models.Favorite{
		UserID:      req.UserID,
		Ticker:      req.Ticker,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.logger.Error("add favorite failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.RetryableError("storage temporarily unavailable").WithError(err))
	}
	return xhttp.CreatedResponse(c, f)
}

func (h *FavoritesHandler) Remove(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid favorite id"))
	}

	if err := h.store.Remove(c.Request().Context(), id); err != nil {
		if errors.Is(err, models.ErrNoData) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("favorite %d not found", id))
		}
		h.logger.Error("remove favorite failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.RetryableError("storage temporarily unavailable").WithError(err))
	}
	return xhttp.NoContentResponse(c)
}
