// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/database"
	"codeberg.org/stemmww/recipeshare/internal/models"
)

const recipeColumns = `r.id, r.title, r.description, r.ingredients, r.instructions,
	r.cooking_time, r.image_url, r.created_by, r.created_at, r.updated_at,
	u.name AS author_name`

// RecipeFilter narrows a recipe listing.
type RecipeFilter struct {
	Query     string // substring match on title or description
	CreatedBy int64  // 0 means any owner
	Limit     int
	Offset    int
}

// CreateRecipe inserts a recipe and fills in its generated fields.
func (r *Repository) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recipes (title, description, ingredients, instructions, cooking_time, image_url, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recipe.Title, recipe.Description, recipe.Ingredients, recipe.Instructions,
		recipe.CookingTime, recipe.ImageURL, recipe.CreatedBy)
	if err != nil {
		return wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetRecipeByID(ctx, id)
	if err != nil {
		return err
	}
	*recipe = *created
	return nil
}

// GetRecipeByID retrieves a recipe with its author name.
func (r *Repository) GetRecipeByID(ctx context.Context, id int64) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.GetContext(ctx, &recipe,
		`SELECT `+recipeColumns+` FROM recipes r JOIN users u ON u.id = r.created_by WHERE r.id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &recipe, nil
}

// ListRecipes returns recipes matching the filter, newest first.
func (r *Repository) ListRecipes(ctx context.Context, f RecipeFilter) ([]models.Recipe, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		like := containsPattern(database.Fold(q))
		where = append(where, `(`+database.FoldFunc+`(r.title) LIKE ? ESCAPE '\' OR `+
			database.FoldFunc+`(r.description) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	if f.CreatedBy != 0 {
		where = append(where, `r.created_by = ?`)
		args = append(args, f.CreatedBy)
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes r JOIN users u ON u.id = r.created_by`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	limit := f.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	recipes := []models.Recipe{}
	if err := r.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		return nil, err
	}
	return recipes, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// UpdateRecipe saves all editable fields of a recipe.
func (r *Repository) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE recipes
		 SET title = ?, description = ?, ingredients = ?, instructions = ?,
		     cooking_time = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		recipe.Title, recipe.Description, recipe.Ingredients, recipe.Instructions,
		recipe.CookingTime, recipe.ImageURL, recipe.ID))
}

// DeleteRecipe deletes a recipe. Favorites cascade.
func (r *Repository) DeleteRecipe(ctx context.Context, id int64) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id))
}

// CountRecipes returns the total number of recipes.
func (r *Repository) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM recipes`)
	return count, err
}
