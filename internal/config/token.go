package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the bot reads from its session token. The server is the
// only party that verifies the signature.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no expiry
}

type sessionClaims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// InspectToken decodes the claims of a session token without verifying it.
func InspectToken(token string) (TokenInfo, error) {
	var claims sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to parse token: %w", err)
	}
	info := TokenInfo{Subject: claims.Subject}
	if info.Subject == "" {
		info.Subject = claims.UserID
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// ErrTokenExpired is returned by CheckToken for a token past its expiry.
var ErrTokenExpired = errors.New("token expired")

// CheckToken reports an expired token. Unparseable tokens are left to the
// server to reject.
func CheckToken(token string, now time.Time) (TokenInfo, error) {
	info, err := InspectToken(token)
	if err != nil {
		return info, nil
	}
	if !info.ExpiresAt.IsZero() && !now.Before(info.ExpiresAt) {
		return info, fmt.Errorf("%w at %s", ErrTokenExpired, info.ExpiresAt.Format(time.RFC3339))
	}
	return info, nil
}
