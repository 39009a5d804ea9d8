// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"codeberg.org/stemmww/recipeshare/internal/sse"
	"github.com/labstack/echo/v4"
)

// ListFavorites returns the token user's saved recipes.
func (h *Handlers) ListFavorites(c echo.Context) error {
	cc := appcontext.Get(c)

	recipes, err := h.repo.ListFavoriteRecipes(c.Request().Context(), cc.TokenUserID)
	if err != nil {
		return internalError(c, "list_favorites_failed", err)
	}
	return c.JSON(http.StatusOK, recipes)
}

// AddFavorite saves a recipe. Saving it again is not an error.
func (h *Handlers) AddFavorite(c echo.Context) error {
	cc := appcontext.Get(c)
	ctx := c.Request().Context()

	recipeID, err := parseID(c, "recipeID")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid recipe id")
	}

	if _, err := h.repo.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "recipe not found")
		}
		return internalError(c, "get_recipe_failed", err)
	}
	if _, err := h.repo.GetUserByID(ctx, cc.TokenUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid token")
		}
		return internalError(c, "get_user_failed", err)
	}

	if err := h.repo.AddFavorite(ctx, cc.TokenUserID, recipeID); err != nil {
		return internalError(c, "favorite_add_failed", err)
	}
	fav, err := h.repo.GetFavorite(ctx, cc.TokenUserID, recipeID)
	if err != nil {
		return internalError(c, "favorite_get_failed", err)
	}

	slog.Info("favorite_added", "user_id", cc.TokenUserID, "recipe_id", recipeID)
	h.publishFavorite(cc.TokenUserID, sse.ActionAdded, recipeID)

	return c.JSON(http.StatusOK, map[string]any{
		"message":  "recipe added to favorites",
		"favorite": fav,
	})
}

// RemoveFavorite un-saves a recipe; 404 if it was not saved.
func (h *Handlers) RemoveFavorite(c echo.Context) error {
	cc := appcontext.Get(c)

	recipeID, err := parseID(c, "recipeID")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid recipe id")
	}

	if err := h.repo.RemoveFavorite(c.Request().Context(), cc.TokenUserID, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "favorite not found")
		}
		return internalError(c, "favorite_remove_failed", err)
	}

	slog.Info("favorite_removed", "user_id", cc.TokenUserID, "recipe_id", recipeID)
	h.publishFavorite(cc.TokenUserID, sse.ActionRemoved, recipeID)

	return c.JSON(http.StatusOK, map[string]string{"message": "recipe removed from favorites"})
}

// publishFavorite notifies the user's other tabs.
func (h *Handlers) publishFavorite(userID int64, action string, recipeID int64) {
	msg, err := sse.JSONEvent(sse.EventFavorite, sse.Payload{Action: action, RecipeID: recipeID})
	if err != nil {
		slog.Error("sse_encode_failed", "error", err)
		return
	}
	h.hub.SendToUser(userID, msg)
}
