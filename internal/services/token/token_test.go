// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("test-secret", time.Hour, "Recipe Share")
	require.NoError(t, err)
	return svc
}

func TestIssueAndParse(t *testing.T) {
	svc := newTestService(t)

	signed, err := svc.Issue(42, "Alice")
	require.NoError(t, err)

	claims, err := svc.Parse(signed)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "Recipe Share", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParse_Expired(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	signed, err := svc.Issue(1, "Alice")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Parse(signed)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParse_WrongSecret(t *testing.T) {
	other, err := NewService("other-secret", time.Hour, "Recipe Share")
	require.NoError(t, err)
	signed, err := other.Issue(1, "Alice")
	require.NoError(t, err)

	_, err = newTestService(t).Parse(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongIssuer(t *testing.T) {
	other, err := NewService("test-secret", time.Hour, "Somebody Else")
	require.NoError(t, err)
	signed, err := other.Issue(1, "Alice")
	require.NoError(t, err)

	_, err = newTestService(t).Parse(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	svc := newTestService(t)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    "Recipe Share",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Parse(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_BadSubject(t *testing.T) {
	svc := newTestService(t)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "Recipe Share",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Parse(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	_, err := newTestService(t).Parse("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewService_GeneratesSecret(t *testing.T) {
	a, err := NewService("", time.Hour, "")
	require.NoError(t, err)
	b, err := NewService("", time.Hour, "")
	require.NoError(t, err)

	signed, err := a.Issue(1, "Alice")
	require.NoError(t, err)

	_, err = a.Parse(signed)
	require.NoError(t, err)
	_, err = b.Parse(signed)
	assert.Error(t, err)
}
