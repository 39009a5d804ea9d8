// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build !dev

// Package assets provides the embedded stylesheet and script. Asset URLs
// carry a content hash so they can be cached forever.
package assets

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"net/http"
)

//go:embed static
var staticFS embed.FS

const (
	cssFile = "css/styles.css"
	jsFile  = "js/app.js"
)

var (
	cssPath string
	jsPath  string
)

func init() {
	cssPath = versioned(cssFile)
	jsPath = versioned(jsFile)
	slog.Debug("loaded asset paths", "css", cssPath, "js", jsPath)
}

// versioned returns the URL of name with a short content hash appended.
// Unreadable files fall back to the bare URL.
func versioned(name string) string {
	url := "/static/" + name
	data, err := fs.ReadFile(staticFS, "static/"+name)
	if err != nil {
		slog.Error("failed to read embedded asset", "name", name, "error", err)
		return url
	}
	sum := sha256.Sum256(data)
	return url + "?v=" + hex.EncodeToString(sum[:])[:8]
}

// CSSPath returns the URL of the stylesheet.
func CSSPath() string {
	return cssPath
}

// JSPath returns the URL of the live-update script.
func JSPath() string {
	return jsPath
}

// FileServer returns an http.Handler that serves embedded static files.
func FileServer() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("failed to create sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
