// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build !dev

package assets_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/stemmww/recipeshare/internal/assets"
	"github.com/stretchr/testify/assert"
)

func TestPaths_AreVersioned(t *testing.T) {
	assert.Regexp(t, `^/static/css/styles\.css\?v=[0-9a-f]{8}$`, assets.CSSPath())
	assert.Regexp(t, `^/static/js/app\.js\?v=[0-9a-f]{8}$`, assets.JSPath())
}

func TestFileServer(t *testing.T) {
	handler := http.StripPrefix("/static", assets.FileServer())

	tests := []struct {
		path     string
		expected int
		contains string
	}{
		{"/static/css/styles.css", http.StatusOK, "font-family"},
		{"/static/js/app.js", http.StatusOK, "EventSource"},
		{"/static/js/missing.js", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expected, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}
