// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package appcontext_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/stemmww/recipeshare/internal/appcontext"
	"codeberg.org/stemmww/recipeshare/internal/ctxkeys"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"codeberg.org/stemmww/recipeshare/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(headers map[string]string) *appcontext.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return appcontext.Get(e.NewContext(req, httptest.NewRecorder()))
}

func TestGet_WrapsOnce(t *testing.T) {
	cc := newContext(map[string]string{"HX-Request": "true"})

	assert.True(t, cc.Htmx.IsHtmx)
	assert.Same(t, cc, appcontext.Get(cc))
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var seen echo.Context
	handler := appcontext.Middleware()(func(c echo.Context) error {
		seen = c
		return nil
	})
	require.NoError(t, handler(c))

	_, ok := seen.(*appcontext.Context)
	assert.True(t, ok)
}

func TestSetUser(t *testing.T) {
	cc := newContext(nil)
	user := &models.User{ID: 123, Name: "alice"}
	data := &session.Data{UserID: 123, Verified: true, ExpiresAt: time.Now().Add(time.Hour)}

	cc.SetUser(data, user)

	assert.Equal(t, user, cc.GetUser())
	assert.True(t, cc.IsAuthenticated())
	ctx := cc.Request().Context()
	assert.Equal(t, user, appcontext.UserFromContext(ctx))
}

func TestIsAuthenticated_False(t *testing.T) {
	cc := newContext(nil)

	assert.False(t, cc.IsAuthenticated())
	assert.Nil(t, cc.GetUser())
	assert.Nil(t, appcontext.UserFromContext(cc.Request().Context()))
}

func TestNeedsOTP(t *testing.T) {
	twoFactor := &models.User{ID: 1, TOTPEnabled: true, TOTPSecret: "JBSWY3DPEHPK3PXP"}
	plain := &models.User{ID: 2}

	tests := []struct {
		name     string
		user     *models.User
		verified bool
		expected bool
	}{
		{"anonymous", nil, false, false},
		{"no two-factor", plain, false, false},
		{"two-factor unverified", twoFactor, false, true},
		{"two-factor verified", twoFactor, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := newContext(nil)
			cc.SetUser(&session.Data{Verified: tt.verified}, tt.user)

			assert.Equal(t, tt.expected, cc.NeedsOTP())
		})
	}
}

func TestCSRFTokenFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxkeys.CSRFToken{}, "token-123")

	assert.Equal(t, "token-123", appcontext.CSRFTokenFromContext(ctx))
	assert.Empty(t, appcontext.CSRFTokenFromContext(context.Background()))
}
