// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// StripTrailingSlash redirects /path/ to /path. It must run via e.Pre so
// the router sees the canonical path.
func StripTrailingSlash() echo.MiddlewareFunc {
	return echomw.RemoveTrailingSlashWithConfig(echomw.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
	})
}
