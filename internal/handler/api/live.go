package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	xlogger "CurveDash/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origin checks are handled by the CORS layer; the socket itself
	// carries no credentials.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans live tick payloads out to every connected websocket. Slow clients
// are disconnected rather than allowed to stall the broadcast loop.
type Hub struct {
	logger     *xlogger.Logger
	clients    map[string]*wsClient
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub. Run must be started before clients connect.
func NewHub(logger *xlogger.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[string]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 256),
	}
}

// Run owns the client set; all mutation happens on this goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				close(c.send)
				delete(h.clients, c.id)
			}
			return
		case c := <-h.register:
			h.clients[c.id] = c
			h.logger.Debug("ws client connected",
				xlogger.String("client", c.id),
				xlogger.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
				h.logger.Debug("ws client disconnected",
					xlogger.String("client", c.id),
					xlogger.Int("clients", len(h.clients)))
			}
		case payload := <-h.broadcast:
			for _, c := range h.clients {
				select {
				case c.send <- payload:
				default:
					delete(h.clients, c.id)
					close(c.send)
					h.logger.Warn("ws client dropped, send buffer full",
						xlogger.String("client", c.id))
				}
			}
		}
	}
}

// Broadcast queues a payload for all clients. Drops the payload when the hub
// itself is saturated.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

// LiveHandler upgrades /ws/live connections into hub clients.
type LiveHandler struct {
	logger *xlogger.Logger
	hub    *Hub
}

func NewLiveHandler(logger *xlogger.Logger, hub *Hub) *LiveHandler {
	return &LiveHandler{logger: logger, hub: hub}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/live", h.Live)
}

func (h *LiveHandler) Live(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", xlogger.Error(err))
		return nil
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.hub.register <- client

	go client.writePump()
	go client.readPump(h.hub)
	return nil
}

// readPump discards inbound frames; the feed is one-way. Its real job is
// noticing the close.
func (c *wsClient) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
