// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session keeps the login state in a signed cookie.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/stemmww/recipeshare/internal/config"
	"github.com/gorilla/securecookie"
)

const keyLength = 32

// Data is the session payload.
type Data struct {
	UserID    int64     `json:"uid"`
	Name      string    `json:"name"`
	Token     string    `json:"tok"`
	Verified  bool      `json:"ver"`
	ExpiresAt time.Time `json:"exp"`
}

// Expired reports whether the session lifetime has passed.
func (d *Data) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Manager encodes sessions into cookies and back.
type Manager struct {
	codec      *securecookie.SecureCookie
	cookieName string
	maxAge     int
	secure     bool
}

// NewManager creates a session manager. An empty hash key is replaced by a
// random one, which logs everybody out on restart.
func NewManager(cfg *config.SessionConfig, secure bool) (*Manager, error) {
	hashKey, err := decodeKey(cfg.HashKey, "hash")
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(keyLength)
		if hashKey == nil {
			return nil, errors.New("failed to generate session hash key")
		}
		slog.Warn("generated session hash key - set SESSION_HASH_KEY in production",
			"key", hex.EncodeToString(hashKey))
	}

	blockKey, err := decodeKey(cfg.BlockKey, "block")
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		codec:      codec,
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge,
		secure:     secure,
	}, nil
}

func decodeKey(value, kind string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid session %s key: %w", kind, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("session %s key must be %d bytes, got %d", kind, keyLength, len(key))
	}
	return key, nil
}

// Create starts a new, unverified session.
func (m *Manager) Create(userID int64, name, token string) (*http.Cookie, error) {
	return m.Save(&Data{
		UserID:    userID,
		Name:      name,
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(m.maxAge) * time.Second),
	})
}

// Save encodes an existing session, keeping its expiry.
func (m *Manager) Save(data *Data) (*http.Cookie, error) {
	remaining := int(time.Until(data.ExpiresAt).Round(time.Second).Seconds())
	if remaining <= 0 {
		return nil, errors.New("session expired")
	}

	value, err := m.codec.Encode(m.cookieName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	return m.cookie(value, min(remaining, m.maxAge)), nil
}

// Parse returns the session carried by the request, or nil when there is
// none or it is invalid or expired.
func (m *Manager) Parse(r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, nil //nolint:nilerr // no cookie means no session
	}

	var data Data
	if err := m.codec.Decode(m.cookieName, cookie.Value, &data); err != nil {
		return nil, nil //nolint:nilerr // tampered or foreign cookies are ignored
	}

	if data.UserID == 0 || data.Expired(time.Now()) {
		return nil, nil
	}
	return &data, nil
}

// Clear returns a cookie that deletes the session.
func (m *Manager) Clear() *http.Cookie {
	return m.cookie("", -1)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
