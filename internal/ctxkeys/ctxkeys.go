// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context.Context keys shared by middleware
// and templates.
package ctxkeys

// CSRFToken holds the CSRF token string.
type CSRFToken struct{}

// User holds the logged-in *models.User.
type User struct{}
