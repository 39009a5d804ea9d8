// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build dev

// Package assets serves static files straight from disk in development,
// without content hashes.
package assets

import (
	"net/http"
)

// CSSPath returns the URL of the stylesheet (unversioned in dev mode).
func CSSPath() string {
	return "/static/css/styles.css"
}

// JSPath returns the URL of the live-update script (unversioned in dev mode).
func JSPath() string {
	return "/static/js/app.js"
}

// FileServer returns an http.Handler that serves static files from the filesystem.
func FileServer() http.Handler {
	return http.FileServer(http.Dir("internal/assets/static"))
}
