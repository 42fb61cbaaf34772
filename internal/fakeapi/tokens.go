package fakeapi

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("invalid token")
)

type refreshRecord struct {
	userID    string
	family    string
	expiresAt time.Time
	replaced  bool
	revoked   bool
}

func (s *Server) issueAccessToken(userID string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.AccessTTL).Unix(),
		"jti": uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// verifyAccessToken returns the subject of a valid access token.
func (s *Server) verifyAccessToken(raw string, now time.Time) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	token, err := parser.Parse(raw, func(*jwt.Token) (any, error) { return s.cfg.Secret, nil })
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errTokenExpired
		}
		return "", errTokenInvalid
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errTokenInvalid
	}
	return sub, nil
}

// newRefreshToken stores a refresh token in family and returns its raw value.
// Callers hold s.mu.
func (s *Server) newRefreshToken(userID, family string, now time.Time) (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(s.cfg.Rand, buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	if family == "" {
		family = uuid.NewString()
	}
	s.refresh[hashToken(raw)] = &refreshRecord{
		userID:    userID,
		family:    family,
		expiresAt: now.Add(s.cfg.RefreshTTL),
	}
	return raw, nil
}

// revokeFamily revokes every token of family. Callers hold s.mu.
func (s *Server) revokeFamily(family string) {
	for _, rec := range s.refresh {
		if rec.family == family {
			rec.revoked = true
		}
	}
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
