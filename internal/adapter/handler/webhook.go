package handler

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/calldeck-team/calldeck/errors"
	"github.com/calldeck-team/calldeck/internal/usecase/ingest"
)

// WebhookHandler receives call lifecycle notifications from the upstream
// voice API and feeds call-ended events into the ingestion pipeline.
type WebhookHandler struct {
	svc    *ingest.Service
	secret string
	logger *zap.Logger
}

// NewWebhookHandler creates a new webhook handler. An empty secret disables
// the shared-secret check.
func NewWebhookHandler(svc *ingest.Service, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, secret: secret, logger: logger}
}

type webhookCaller struct {
	PhoneNumber string `json:"phoneNumber"`
}

type webhookCall struct {
	CallID       string        `json:"callId"`
	Caller       webhookCaller `json:"caller"`
	ShortSummary string        `json:"shortSummary"`
}

type webhookRequest struct {
	Event string       `json:"event" validate:"required"`
	Call  *webhookCall `json:"call"`
}

// HandleVoiceWebhook processes an inbound webhook delivery
// @Summary      Voice API Webhook
// @Description  Receives call lifecycle events; call.ended triggers ingestion
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /webhook [post]
func (h *WebhookHandler) HandleVoiceWebhook(c echo.Context) error {
	if h.secret != "" {
		provided := c.Request().Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			return HandleError(h.logger, c, errors.ErrWebhookUnauthorized())
		}
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(body) == 0 {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("cause", "malformed JSON"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("cause", err.Error()))
	}

	// Out-of-scope event kinds are acknowledged, not errors.
	if req.Event != ingest.EventCallEnded {
		if h.logger != nil {
			h.logger.Info("ignoring webhook event",
				zap.String("event", req.Event))
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ignored"})
	}

	if req.Call == nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("cause", "call.ended event without call object"))
	}

	// Keep the raw payload alongside the record for operator debugging.
	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	outcome, err := h.svc.HandleCallEnded(c.Request().Context(), ingest.Event{
		Kind:         req.Event,
		CallID:       req.Call.CallID,
		PhoneNumber:  req.Call.Caller.PhoneNumber,
		ShortSummary: req.Call.ShortSummary,
		Raw:          raw,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if outcome.Duplicate {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "duplicate"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"callId": outcome.Record.ID,
	})
}
