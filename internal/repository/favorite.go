// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/stemmww/recipeshare/internal/models"
)

// AddFavorite saves a recipe for a user. Adding twice is a no-op.
func (r *Repository) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, recipe_id) VALUES (?, ?)`,
		userID, recipeID)
	return wrapError(err)
}

// GetFavorite returns the saved pair, or ErrNotFound.
func (r *Repository) GetFavorite(ctx context.Context, userID, recipeID int64) (*models.Favorite, error) {
	var fav models.Favorite
	err := r.db.GetContext(ctx, &fav,
		`SELECT user_id, recipe_id, created_at FROM favorites WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &fav, nil
}

// RemoveFavorite removes a saved recipe. Returns ErrNotFound if it was not saved.
func (r *Repository) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return requireAffected(r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND recipe_id = ?`, userID, recipeID))
}

// ListFavoriteRecipes returns the user's saved recipes, most recently saved first.
func (r *Repository) ListFavoriteRecipes(ctx context.Context, userID int64) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	err := r.db.SelectContext(ctx, &recipes,
		`SELECT `+recipeColumns+`
		 FROM favorites f
		 JOIN recipes r ON r.id = f.recipe_id
		 JOIN users u ON u.id = r.created_by
		 WHERE f.user_id = ?
		 ORDER BY f.created_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return recipes, nil
}
