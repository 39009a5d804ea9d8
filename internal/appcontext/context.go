// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context shared by
// middleware and handlers.
package appcontext

import (
	"context"

	"codeberg.org/stemmww/recipeshare/internal/ctxkeys"
	"codeberg.org/stemmww/recipeshare/internal/htmx"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"codeberg.org/stemmww/recipeshare/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Context is an Echo context with typed request state.
type Context struct {
	echo.Context
	Htmx    *htmx.Request
	Session *session.Data // nil without a valid session cookie
	User    *models.User  // nil if not logged in

	// TokenUserID is the subject of a verified bearer token, 0 otherwise.
	TokenUserID int64
}

// Get returns c as *Context, wrapping it on first use.
func Get(c echo.Context) *Context {
	if cc, ok := c.(*Context); ok {
		return cc
	}
	return &Context{
		Context: c,
		Htmx:    htmx.ParseRequest(c.Request()),
	}
}

// Middleware wraps every request in a *Context.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(Get(c))
		}
	}
}

// SetUser stores the session and user for handlers and, through the
// request context, for templates.
func (c *Context) SetUser(data *session.Data, user *models.User) {
	c.Session = data
	c.User = user

	ctx := context.WithValue(c.Request().Context(), ctxkeys.User{}, user)
	c.SetRequest(c.Request().WithContext(ctx))
}

// GetUser returns the authenticated user, or nil if not authenticated.
func (c *Context) GetUser() *models.User {
	return c.User
}

// IsAuthenticated returns true if the user is authenticated.
func (c *Context) IsAuthenticated() bool {
	return c.User != nil
}

// NeedsOTP reports whether the user has two-factor enabled but the
// session has not been verified yet.
func (c *Context) NeedsOTP() bool {
	return c.User != nil && c.User.RequiresOTP() && (c.Session == nil || !c.Session.Verified)
}

// UserFromContext returns the user stored by SetUser.
func UserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}

// CSRFTokenFromContext returns the CSRF token copied by the CSRF middleware.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ctxkeys.CSRFToken{}).(string)
	return token
}
