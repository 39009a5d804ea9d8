// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers for pages and the JSON API.
package handlers

import (
	"net/http"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/cache"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"codeberg.org/stemmww/recipeshare/internal/services/auth"
	"codeberg.org/stemmww/recipeshare/internal/services/recovery"
	"codeberg.org/stemmww/recipeshare/internal/services/session"
	"codeberg.org/stemmww/recipeshare/internal/services/token"
	"codeberg.org/stemmww/recipeshare/internal/services/totp"
	"codeberg.org/stemmww/recipeshare/internal/sse"
	"codeberg.org/stemmww/recipeshare/internal/templates"
	"github.com/labstack/echo/v4"
)

// Options bundles the services the handlers depend on. Cache and Hub may
// be nil.
type Options struct {
	Repo     *repository.Repository
	Auth     *auth.Service
	Sessions *session.Manager
	Tokens   *token.Service
	TOTP     *totp.Service
	Recovery *recovery.Service
	Cache    *cache.Cache
	Hub      *sse.Hub
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo     *repository.Repository
	auth     *auth.Service
	sessions *session.Manager
	tokens   *token.Service
	totp     *totp.Service
	recovery *recovery.Service
	cache    *cache.Cache
	hub      *sse.Hub
}

// New creates a new Handlers instance.
func New(opts Options) *Handlers {
	hub := opts.Hub
	if hub == nil {
		hub = sse.NewHub()
	}
	return &Handlers{
		repo:     opts.Repo,
		auth:     opts.Auth,
		sessions: opts.Sessions,
		tokens:   opts.Tokens,
		totp:     opts.TOTP,
		recovery: opts.Recovery,
		cache:    opts.Cache,
		hub:      hub,
	}
}

// Hub returns the SSE hub events are published on.
func (h *Handlers) Hub() *sse.Hub {
	return h.hub
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Index renders the home page. Users with unverified two-factor logins
// are sent to the OTP form first.
func (h *Handlers) Index(c echo.Context) error {
	cc := appcontext.Get(c)
	ctx := c.Request().Context()

	if cc.NeedsOTP() {
		return c.Redirect(http.StatusSeeOther, "/verify-otp")
	}

	if !cc.IsAuthenticated() {
		count, err := h.repo.CountRecipes(ctx)
		if err != nil {
			return internalError(c, "count_recipes_failed", err)
		}
		return Render(c, http.StatusOK, templates.Layout(templates.T(ctx, "nav_home"), templates.Index(nil, count)))
	}

	users, err := h.repo.ListUsers(ctx)
	if err != nil {
		return internalError(c, "list_users_failed", err)
	}
	return Render(c, http.StatusOK, templates.Layout(templates.T(ctx, "nav_home"), templates.Index(users, 0)))
}

// InfoPage returns a handler for one of the static content pages.
func (h *Handlers) InfoPage(key string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		title := templates.T(ctx, "page_"+key+"_title")
		return Render(c, http.StatusOK, templates.Layout(title, templates.InfoPage(key)))
	}
}

// RecipesPage lists recipes server side, filtered by ?q=.
func (h *Handlers) RecipesPage(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("q")

	recipes, err := h.repo.ListRecipes(ctx, repository.RecipeFilter{Query: query, Limit: maxPageSize})
	if err != nil {
		return internalError(c, "list_recipes_failed", err)
	}

	title := templates.T(ctx, "page_recipes_title")
	return Render(c, http.StatusOK, templates.Layout(title, templates.Recipes(recipes, query)))
}

// Settings renders the account settings page.
func (h *Handlers) Settings(c echo.Context) error {
	cc := appcontext.Get(c)
	ctx := c.Request().Context()
	title := templates.T(ctx, "page_settings_title")
	return Render(c, http.StatusOK, templates.Layout(title, templates.Settings(cc.User)))
}
