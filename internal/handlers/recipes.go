// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"codeberg.org/stemmww/recipeshare/internal/sse"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

// recipeInput is the JSON body of create and update requests. Nil fields
// are left unchanged on update.
type recipeInput struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Ingredients  *[]string `json:"ingredients"`
	Instructions *string   `json:"instructions"`
	CookingTime  *int      `json:"cooking_time"`
	ImageURL     *string   `json:"image_url"`
}

func (in *recipeInput) apply(r *models.Recipe) {
	if in.Title != nil {
		r.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		r.Description = strings.TrimSpace(*in.Description)
	}
	if in.Ingredients != nil {
		r.Ingredients = lo.Compact(lo.Map(*in.Ingredients, func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
	}
	if in.Instructions != nil {
		r.Instructions = strings.TrimSpace(*in.Instructions)
	}
	if in.CookingTime != nil {
		r.CookingTime = *in.CookingTime
	}
	if in.ImageURL != nil {
		r.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
}

// validateRecipe checks the fields every stored recipe must have.
func validateRecipe(r *models.Recipe) error {
	switch {
	case r.Title == "":
		return errors.New("title is required")
	case r.Description == "":
		return errors.New("description is required")
	case len(r.Ingredients) == 0:
		return errors.New("at least one ingredient is required")
	case r.Instructions == "":
		return errors.New("instructions are required")
	case r.CookingTime <= 0:
		return errors.New("cooking_time must be a positive number of minutes")
	}
	return nil
}

// CreateRecipe creates a recipe owned by the token's user.
func (h *Handlers) CreateRecipe(c echo.Context) error {
	cc := appcontext.Get(c)
	ctx := c.Request().Context()

	var in recipeInput
	if err := c.Bind(&in); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	recipe := &models.Recipe{CreatedBy: cc.TokenUserID}
	in.apply(recipe)
	if err := validateRecipe(recipe); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	if _, err := h.repo.GetUserByID(ctx, cc.TokenUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid token")
		}
		return internalError(c, "get_user_failed", err)
	}

	if err := h.repo.CreateRecipe(ctx, recipe); err != nil {
		return internalError(c, "recipe_create_failed", err)
	}

	slog.Info("recipe_created", "recipe_id", recipe.ID, "user_id", cc.TokenUserID)
	h.publishRecipe(sse.ActionCreated, recipe.ID, recipe)

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "recipe created",
		"recipe":  recipe,
	})
}

// ListRecipes lists recipes newest first with optional search and paging.
func (h *Handlers) ListRecipes(c echo.Context) error {
	limit := min(queryInt(c, "limit", defaultPageSize), maxPageSize)
	if limit == 0 {
		limit = defaultPageSize
	}

	recipes, err := h.repo.ListRecipes(c.Request().Context(), repository.RecipeFilter{
		Query:  c.QueryParam("q"),
		Limit:  limit,
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		return internalError(c, "list_recipes_failed", err)
	}
	return c.JSON(http.StatusOK, recipes)
}

// MyRecipes lists the recipes owned by the token's user.
func (h *Handlers) MyRecipes(c echo.Context) error {
	cc := appcontext.Get(c)

	recipes, err := h.repo.ListRecipes(c.Request().Context(), repository.RecipeFilter{
		CreatedBy: cc.TokenUserID,
	})
	if err != nil {
		return internalError(c, "list_recipes_failed", err)
	}
	return c.JSON(http.StatusOK, recipes)
}

// GetRecipe returns one recipe with its author name.
func (h *Handlers) GetRecipe(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.loadRecipe(c, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "recipe not found")
		}
		return internalError(c, "get_recipe_failed", err)
	}
	return c.JSON(http.StatusOK, recipe)
}

// loadRecipe reads a recipe through the cache.
func (h *Handlers) loadRecipe(c echo.Context, id int64) (*models.Recipe, error) {
	ctx := c.Request().Context()

	if recipe, ok := h.cache.GetRecipe(ctx, id); ok {
		return recipe, nil
	}

	recipe, err := h.repo.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	h.cache.SetRecipe(ctx, recipe)
	return recipe, nil
}

// ownedRecipe loads a recipe for a write by the token's user. It writes
// the error response itself and returns a nil recipe in that case.
func (h *Handlers) ownedRecipe(c echo.Context) (*models.Recipe, error) {
	cc := appcontext.Get(c)

	id, err := parseID(c, "id")
	if err != nil {
		return nil, jsonError(c, http.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.repo.GetRecipeByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, jsonError(c, http.StatusNotFound, "recipe not found")
		}
		return nil, internalError(c, "get_recipe_failed", err)
	}
	if !recipe.IsOwnedBy(cc.TokenUserID) {
		slog.Warn("recipe_write_forbidden", "recipe_id", id, "user_id", cc.TokenUserID)
		return nil, jsonError(c, http.StatusForbidden, "you can only modify your own recipes")
	}
	return recipe, nil
}

// UpdateRecipe applies the provided fields to an owned recipe.
func (h *Handlers) UpdateRecipe(c echo.Context) error {
	recipe, err := h.ownedRecipe(c)
	if recipe == nil {
		return err
	}
	ctx := c.Request().Context()

	var in recipeInput
	if err := c.Bind(&in); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	in.apply(recipe)
	if err := validateRecipe(recipe); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.repo.UpdateRecipe(ctx, recipe); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "recipe not found")
		}
		return internalError(c, "recipe_update_failed", err)
	}
	h.cache.DeleteRecipe(ctx, recipe.ID)

	updated, err := h.repo.GetRecipeByID(ctx, recipe.ID)
	if err != nil {
		return internalError(c, "get_recipe_failed", err)
	}

	slog.Info("recipe_updated", "recipe_id", recipe.ID)
	h.publishRecipe(sse.ActionUpdated, updated.ID, updated)

	return c.JSON(http.StatusOK, map[string]any{
		"message": "recipe updated",
		"recipe":  updated,
	})
}

// DeleteRecipe deletes an owned recipe.
func (h *Handlers) DeleteRecipe(c echo.Context) error {
	recipe, err := h.ownedRecipe(c)
	if recipe == nil {
		return err
	}
	ctx := c.Request().Context()

	if err := h.repo.DeleteRecipe(ctx, recipe.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "recipe not found")
		}
		return internalError(c, "recipe_delete_failed", err)
	}
	h.cache.DeleteRecipe(ctx, recipe.ID)

	slog.Info("recipe_deleted", "recipe_id", recipe.ID)
	h.publishRecipe(sse.ActionDeleted, recipe.ID, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "recipe deleted"})
}

// publishRecipe broadcasts a recipe change to every open event stream.
func (h *Handlers) publishRecipe(action string, id int64, recipe *models.Recipe) {
	payload := sse.Payload{Action: action, RecipeID: id}
	if recipe != nil {
		payload.Data = recipe
	}
	msg, err := sse.JSONEvent(sse.EventRecipe, payload)
	if err != nil {
		slog.Error("sse_encode_failed", "error", err)
		return
	}
	h.hub.Broadcast(msg)
}
