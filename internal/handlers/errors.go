// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/stemmww/recipeshare/internal/templates"
	"github.com/labstack/echo/v4"
)

// statusMessages maps status codes to the message shown on error pages.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "error_bad_request",
	http.StatusUnauthorized:        "error_unauthorized",
	http.StatusForbidden:           "error_forbidden",
	http.StatusNotFound:            "error_not_found",
	http.StatusInternalServerError: "error_internal",
}

// renderError renders the error page for status with a translated message.
func renderError(c echo.Context, status int, messageID string) error {
	ctx := c.Request().Context()
	msg := templates.T(ctx, messageID)
	return Render(c, status, templates.Layout(http.StatusText(status), templates.ErrorPage(status, msg)))
}

// ErrorHandler replaces echo's default error handler. API and JSON
// clients get {"error": ...}, browsers get an HTML error page.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "error", err, "path", c.Request().URL.Path)
		msg = "internal server error"
	}

	var writeErr error
	switch {
	case c.Request().Method == http.MethodHead:
		writeErr = c.NoContent(status)
	case isAPI(c) || wantsJSON(c):
		writeErr = jsonError(c, status, msg)
	default:
		messageID, ok := statusMessages[status]
		if !ok {
			messageID = "error_bad_request"
			if status >= http.StatusInternalServerError {
				messageID = "error_internal"
			}
		}
		writeErr = renderError(c, status, messageID)
	}
	if writeErr != nil {
		slog.Error("error_response_failed", "error", writeErr)
	}
}
