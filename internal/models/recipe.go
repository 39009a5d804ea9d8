// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Recipe is a dish published by a user.
type Recipe struct { //nolint:govet // fieldalignment: readability over optimization
	ID           int64       `db:"id" json:"id"`
	Title        string      `db:"title" json:"title"`
	Description  string      `db:"description" json:"description"`
	Ingredients  Ingredients `db:"ingredients" json:"ingredients"`
	Instructions string      `db:"instructions" json:"instructions"`
	CookingTime  int         `db:"cooking_time" json:"cooking_time"`
	ImageURL     string      `db:"image_url" json:"image_url,omitempty"`
	CreatedBy    int64       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`

	// AuthorName is filled by queries joining users.
	AuthorName string `db:"author_name" json:"author_name,omitempty"`
}

// IsOwnedBy reports whether the recipe was created by the given user.
func (r *Recipe) IsOwnedBy(userID int64) bool {
	return r.CreatedBy == userID
}
