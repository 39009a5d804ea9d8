// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/htmx"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"codeberg.org/stemmww/recipeshare/internal/templates"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

type userUpdateRequest struct {
	Name string `form:"name" json:"name"`
	Age  int    `form:"age" json:"age"`
}

// UpdateUserPage renders the edit form for the signed-in user's account.
func (h *Handlers) UpdateUserPage(c echo.Context) error {
	cc := appcontext.Get(c)

	id, err := parseID(c, "id")
	if err != nil {
		return renderError(c, http.StatusBadRequest, "error_bad_request")
	}
	user, err := h.repo.GetUserByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return renderError(c, http.StatusNotFound, "error_not_found")
		}
		return internalError(c, "get_user_failed", err)
	}
	if user.ID != cc.User.ID {
		return renderError(c, http.StatusForbidden, "error_forbidden")
	}

	return h.renderUserUpdate(c, http.StatusOK, user, nil)
}

// UpdateUser saves name and age of the signed-in user's own account.
func (h *Handlers) UpdateUser(c echo.Context) error {
	cc := appcontext.Get(c)
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return renderError(c, http.StatusBadRequest, "error_bad_request")
	}
	if id != cc.User.ID {
		slog.Warn("user_update_forbidden", "user_id", cc.User.ID, "target_id", id)
		return renderError(c, http.StatusForbidden, "error_forbidden")
	}

	var req userUpdateRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return h.renderUserUpdate(c, http.StatusBadRequest, cc.User, []string{templates.T(ctx, "error_invalid_age")})
	}
	req.Name = strings.TrimSpace(req.Name)

	draft := *cc.User
	draft.Name, draft.Age = req.Name, req.Age
	switch {
	case req.Name == "":
		return h.renderUserUpdate(c, http.StatusBadRequest, &draft, []string{templates.T(ctx, "error_invalid_name")})
	case req.Age < 0:
		return h.renderUserUpdate(c, http.StatusBadRequest, &draft, []string{templates.T(ctx, "error_invalid_age")})
	}

	if err := h.repo.UpdateUserProfile(ctx, id, req.Name, req.Age); err != nil {
		return internalError(c, "user_update_failed", err)
	}

	// The session carries the display name.
	data := *cc.Session
	data.Name = req.Name
	cookie, err := h.sessions.Save(&data)
	if err != nil {
		return internalError(c, "session_save_failed", err)
	}
	c.SetCookie(cookie)

	slog.Info("user_updated", "user_id", id)
	return htmx.Redirect(c, "/profile")
}

// DeleteUser deletes the signed-in user's own account and ends the session.
func (h *Handlers) DeleteUser(c echo.Context) error {
	cc := appcontext.Get(c)

	id, err := parseID(c, "id")
	if err != nil {
		return renderError(c, http.StatusBadRequest, "error_bad_request")
	}
	if id != cc.User.ID {
		slog.Warn("user_delete_forbidden", "user_id", cc.User.ID, "target_id", id)
		return renderError(c, http.StatusForbidden, "error_forbidden")
	}

	ctx := c.Request().Context()
	// Recipes cascade with the user, so their cache entries must go too.
	owned, err := h.repo.ListRecipes(ctx, repository.RecipeFilter{CreatedBy: id})
	if err != nil {
		return internalError(c, "list_recipes_failed", err)
	}
	if err := h.repo.DeleteUser(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return internalError(c, "user_delete_failed", err)
	}
	h.cache.DeleteRecipes(ctx, lo.Map(owned, func(r models.Recipe, _ int) int64 { return r.ID })...)

	c.SetCookie(h.sessions.Clear())
	slog.Info("user_deleted", "user_id", id)
	return htmx.Redirect(c, "/")
}

func (h *Handlers) renderUserUpdate(c echo.Context, status int, user *models.User, errs []string) error {
	title := templates.T(c.Request().Context(), "user_update_title")
	return Render(c, status, templates.Layout(title, templates.UserUpdate(user, errs)))
}
