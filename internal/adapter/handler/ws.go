package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/calldeck-team/calldeck/internal/infrastructure/realtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades dashboard connections and relays hub broadcasts
type WSHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(hub *realtime.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// Subscribe upgrades the connection and streams newCall events until the
// client disconnects. Nothing is replayed on connect.
func (h *WSHandler) Subscribe(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return nil
	}
	defer func() { _ = conn.Close() }()

	hello := realtime.ConnectedEvent{
		Event:     realtime.Event{Event: "connected", Timestamp: time.Now().UTC()},
		Connected: true,
	}
	if payload, err := json.Marshal(hello); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}

	ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(ch)

	// Drain the read side so a disconnect is noticed immediately instead of
	// on the next broadcast write. Clients never send payloads; any read
	// result other than an error is discarded. Unsubscribe closes ch, which
	// ends the write loop below.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.hub.Unsubscribe(ch)
				return
			}
		}
	}()

	for msg := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return nil
		}
	}
	return nil
}
