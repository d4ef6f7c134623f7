package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/calldeck-team/calldeck/errors"
)

// ErrorResponse is the error body shape on every failing endpoint
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID reads X-Request-ID from the request, falling back to the
// id the middleware generated on the response
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if c.Response() != nil {
		return c.Response().Header().Get(echo.HeaderXRequestID)
	}
	return ""
}

// HandleError centralizes error responses and logging
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.String("app_code", appErr.Code.String()),
				zap.Error(err),
			)
		}

		body := ErrorResponse{
			Error:   appErr.Message,
			Details: appErr.Details,
		}
		if appErr.Raw != nil {
			if body.Details == nil {
				body.Details = make(map[string]string)
			}
			body.Details["cause"] = appErr.Raw.Error()
		}
		return c.JSON(appErr.HTTPCode, body)
	}

	// Non-AppError => internal server error
	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "Internal server error",
		Details: map[string]string{"cause": err.Error()},
	})
}
