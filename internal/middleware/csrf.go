// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/ctxkeys"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CSRF protects form posts. The JSON API authenticates with bearer tokens
// instead of cookies and is skipped, as are JSON bodies: browsers cannot
// send them cross-site without a CORS preflight.
func CSRF(secure bool) echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper:        skipCSRF,
		TokenLookup:    "form:csrf_token,header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		ErrorHandler: func(err error, c echo.Context) error {
			slog.Warn("csrf_failure", "path", c.Path(), "method", c.Request().Method, "ip", c.RealIP())
			return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token, please reload the page")
		},
	})
}

func skipCSRF(c echo.Context) bool {
	path := c.Request().URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		return true
	}
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return true
	}
	_, bearer := BearerToken(c.Request())
	return bearer
}

// CSRFToContext copies the CSRF token into the request context for templates.
func CSRFToContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string); ok {
				ctx := context.WithValue(c.Request().Context(), ctxkeys.CSRFToken{}, token)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}
