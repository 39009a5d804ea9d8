// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"

	"codeberg.org/stemmww/recipeshare/internal/i18n"
	"github.com/labstack/echo/v4"
)

const langCookie = "lang"

// Locale picks the UI language from ?lang=, the lang cookie or the
// Accept-Language header, in that order. An explicit ?lang= is remembered.
func Locale() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var prefs []string

			if q := c.QueryParam("lang"); q != "" {
				prefs = append(prefs, q)
				c.SetCookie(&http.Cookie{
					Name:     langCookie,
					Value:    i18n.MatchLanguage(q).String(),
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			} else if cookie, err := c.Cookie(langCookie); err == nil {
				prefs = append(prefs, cookie.Value)
			}
			prefs = append(prefs, c.Request().Header.Get("Accept-Language"))

			ctx := i18n.WithLocale(c.Request().Context(), i18n.MatchLanguage(prefs...))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
