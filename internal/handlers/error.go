package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the standard API error body. Cause and Stack are only
// populated outside production.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// NewHTTPErrorHandler returns the centralized error responder: every failure
// is rendered as an ErrorResponse, defaulting to 500 when the error carries
// no explicit status.
func NewHTTPErrorHandler(log *slog.Logger, includeDetails bool) echo.HTTPErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := http.StatusText(status)
		var cause error

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if s, ok := httpErr.Message.(string); ok {
				message = s
			} else {
				message = fmt.Sprintf("%v", httpErr.Message)
			}
			cause = httpErr.Internal
		} else {
			cause = err
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				slog.String("method", c.Request().Method),
				slog.String("uri", c.Request().RequestURI),
				slog.Int("status", status),
				slog.Any("error", err),
			)
		}

		body := ErrorResponse{Status: status, Message: message}
		if includeDetails {
			if cause != nil {
				body.Cause = cause.Error()
			}
			body.Stack = string(debug.Stack())
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			log.Error("write error response failed", slog.Any("error", writeErr))
		}
	}
}
