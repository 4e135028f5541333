package config

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token := signToken(t, jwt.RegisteredClaims{
		Subject:   "player-7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	info, err := InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "player-7", info.Subject)
	assert.True(t, exp.Equal(info.ExpiresAt))
}

func TestInspectTokenUserIDFallback(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"userId": "u-42"})

	info, err := InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-42", info.Subject)
	assert.True(t, info.ExpiresAt.IsZero())
}

func TestInspectTokenMalformed(t *testing.T) {
	_, err := InspectToken("not.a.jwt")
	assert.Error(t, err)
}

func TestCheckToken(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	expired := signToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	_, err := CheckToken(expired, now)
	assert.ErrorIs(t, err, ErrTokenExpired)

	valid := signToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	_, err = CheckToken(valid, now)
	assert.NoError(t, err)

	// opaque tokens are passed through
	_, err = CheckToken("opaque-session-token", now)
	assert.NoError(t, err)
}
