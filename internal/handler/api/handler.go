package api

import (
	"github.com/labstack/echo/v4"
)

// Router combines all API handlers behind one route registration.
type Router struct {
	data      *DataHandler
	favorites *FavoritesHandler
	live      *LiveHandler
}

func NewRouter(data *DataHandler, favorites *FavoritesHandler, live *LiveHandler) *Router {
	return &Router{data: data, favorites: favorites, live: live}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.data.RegisterRoutes(e)
	r.favorites.RegisterRoutes(e)
	r.live.RegisterRoutes(e)
}
