package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/calldeck-team/calldeck/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	webhookHandler *WebhookHandler
	callsHandler   *CallsHandler
	wsHandler      *WSHandler
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, webhookHandler *WebhookHandler, callsHandler *CallsHandler, wsHandler *WSHandler) *Router {
	return &Router{
		cfg:            cfg,
		webhookHandler: webhookHandler,
		callsHandler:   callsHandler,
		wsHandler:      wsHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	e.POST("/webhook", rt.webhookHandler.HandleVoiceWebhook)

	e.GET("/calls", rt.callsHandler.ListCalls)
	e.GET("/calls/:id/recording", rt.callsHandler.StreamRecording)

	e.GET("/ws", rt.wsHandler.Subscribe)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
