// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/services/token"
	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}

// RequireToken rejects requests without a valid bearer token with 401
// and stores the token's user id on the context.
func RequireToken(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c.Request())
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid authorization header"})
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, token.ErrExpiredToken) {
					msg = "token expired"
				}
				slog.Debug("token_rejected", "error", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
			}

			userID, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}

			cc := appcontext.Get(c)
			cc.TokenUserID = userID
			return next(cc)
		}
	}
}
