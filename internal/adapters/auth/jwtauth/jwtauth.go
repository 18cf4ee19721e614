// Package jwtauth signs and verifies the service's own HMAC tokens.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mung-manager/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	Email string `json:"email,omitempty"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Manager implements both auth.TokenIssuer and auth.TokenVerifier over a
// shared HMAC secret.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("jwtauth: empty secret")
	}
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}, nil
}

func (m *Manager) sign(userID, email, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	c := claims{
		Email: email,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

func (m *Manager) Issue(userID, email string) (auth.TokenPair, error) {
	access, err := m.sign(userID, email, typeAccess, m.accessTTL)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("jwtauth: sign access token: %w", err)
	}
	refresh, err := m.sign(userID, email, typeRefresh, m.refreshTTL)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("jwtauth: sign refresh token: %w", err)
	}
	return auth.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) Verify(_ context.Context, token string) (auth.Claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwtauth: unexpected signing method %q", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return auth.Claims{}, fmt.Errorf("jwtauth: parse token: %w", err)
	}
	if !parsed.Valid || c.Subject == "" {
		return auth.Claims{}, errors.New("jwtauth: invalid token")
	}
	if c.Type != typeAccess {
		return auth.Claims{}, errors.New("jwtauth: token is not an access token")
	}
	return auth.Claims{UserID: c.Subject, Email: c.Email}, nil
}
