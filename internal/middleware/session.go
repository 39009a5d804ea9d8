// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware holds the Echo middleware for sessions, bearer
// tokens, CSRF, locale and request logging.
package middleware

import (
	"context"
	"errors"
	"log/slog"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/htmx"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"codeberg.org/stemmww/recipeshare/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Paths the session guards redirect to.
const (
	LoginPath     = "/login"
	VerifyOTPPath = "/verify-otp"
)

// UserLoader loads the user behind a session.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// LoadSession resolves the session cookie and the user it belongs to.
// Sessions of deleted users are cleared.
func LoadSession(sessions *session.Manager, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := appcontext.Get(c)

			data, err := sessions.Parse(c.Request())
			if err != nil || data == nil {
				return next(cc)
			}

			user, err := users.GetUserByID(c.Request().Context(), data.UserID)
			if err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				slog.Info("session_user_gone", "user_id", data.UserID)
				c.SetCookie(sessions.Clear())
				return next(cc)
			}

			cc.SetUser(data, user)
			return next(cc)
		}
	}
}

// RequireAuth redirects anonymous visitors to the login page.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := appcontext.Get(c)
			if !cc.IsAuthenticated() {
				return htmx.Redirect(c, LoginPath)
			}
			return next(cc)
		}
	}
}

// RequireVerified sends users with two-factor enabled to the OTP page
// until their session is verified. It implies RequireAuth.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := appcontext.Get(c)
			switch {
			case !cc.IsAuthenticated():
				return htmx.Redirect(c, LoginPath)
			case cc.NeedsOTP():
				return htmx.Redirect(c, VerifyOTPPath)
			}
			return next(cc)
		}
	}
}
