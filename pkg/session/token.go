package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT access token without verifying
// its signature. It is for display only; the server stays authoritative.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ExpiresAt is TokenExpiry for the snapshot's token.
func (s Snapshot) ExpiresAt() (time.Time, bool) {
	return TokenExpiry(s.Token)
}
