package http

import "github.com/labstack/echo/v4"

// Handler registers a group of routes on the server. The API router and the
// websocket endpoint both plug in through this.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
