// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Favorite marks a recipe as saved by a user.
type Favorite struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UserID    int64     `db:"user_id" json:"user_id"`
	RecipeID  int64     `db:"recipe_id" json:"recipe_id"`
}
