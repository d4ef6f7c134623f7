package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/calldeck-team/calldeck/errors"
	"github.com/calldeck-team/calldeck/internal/adapter/dto/call"
	"github.com/calldeck-team/calldeck/internal/domain/repositories"
	"github.com/calldeck-team/calldeck/pkg/voice"
)

// CallsHandler serves the accumulated call history and proxies recordings
// from the upstream voice API.
type CallsHandler struct {
	repo   repositories.CallRepository
	voice  *voice.Client
	logger *zap.Logger
}

// NewCallsHandler creates a new calls handler
func NewCallsHandler(repo repositories.CallRepository, voiceClient *voice.Client, logger *zap.Logger) *CallsHandler {
	return &CallsHandler{repo: repo, voice: voiceClient, logger: logger}
}

// ListCalls returns every stored call record, newest first
// @Summary      List call records
// @Description  Full call history in descending timestamp order
// @Tags         Calls
// @Produce      json
// @Success      200  {array}   call.Response
// @Failure      500  {object}  ErrorResponse
// @Router       /calls [get]
func (h *CallsHandler) ListCalls(c echo.Context) error {
	records, err := h.repo.ListAll(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailure(err))
	}
	return c.JSON(http.StatusOK, call.FromEntities(records))
}

// recording response headers forwarded to the player
var recordingHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
}

// StreamRecording relays the call's audio from the upstream provider,
// passing byte-range requests through for seekable playback. Recording
// existence is checked here, lazily, never at ingestion time.
// @Summary      Stream call recording
// @Description  Proxies the upstream recording with Range passthrough
// @Tags         Calls
// @Produce      audio/*
// @Success      200
// @Success      206
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /calls/{id}/recording [get]
func (h *CallsHandler) StreamRecording(c echo.Context) error {
	callID := c.Param("id")
	if callID == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("call id is required"))
	}

	resp, err := h.voice.FetchRecording(c.Request().Context(), callID, c.Request().Header.Get("Range"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrRecordingFetchFailed(callID, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return HandleError(h.logger, c, errors.ErrNotFound("recording").WithDetail("call_id", callID))
	}
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusPartialContent {
		return HandleError(h.logger, c, errors.ErrRecordingFetchFailed(callID, nil).
			WithDetail("upstream_status", resp.Status))
	}

	header := c.Response().Header()
	for _, name := range recordingHeaders {
		if v := resp.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)
	if _, err := io.Copy(c.Response(), resp.Body); err != nil && h.logger != nil {
		h.logger.Warn("recording stream interrupted",
			zap.String("call_id", callID),
			zap.Error(err))
	}
	return nil
}
