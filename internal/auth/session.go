// Package auth signs and verifies the session tokens that carry the
// org-scoped identity every tool executes under.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrAuthDisabled marks a service constructed without a signing secret.
	ErrAuthDisabled = errors.New("auth disabled: no secret configured")
	// ErrInvalidToken marks tokens that fail parsing, signature or claims
	// checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Session is the verified identity inside a token.
type Session struct {
	UserID         string
	OrganizationID string
	Email          string
}

// Service handles token signing and verification.
type Service struct {
	secret []byte
	expiry time.Duration
}

// NewService builds a session helper with the given secret and expiry.
func NewService(secret string, expiry time.Duration) *Service {
	return &Service{secret: []byte(secret), expiry: expiry}
}

// Enabled reports whether a signing secret is configured.
func (s *Service) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

type claims struct {
	OrganizationID string `json:"org"`
	Email          string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Generate issues a signed token for the session.
func (s *Service) Generate(sess Session) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if strings.TrimSpace(sess.UserID) == "" || strings.TrimSpace(sess.OrganizationID) == "" {
		return "", errors.New("user and organization ids required")
	}

	c := claims{
		OrganizationID: sess.OrganizationID,
		Email:          strings.TrimSpace(sess.Email),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiry)),
		},
	}
	if s.expiry <= 0 {
		c.ExpiresAt = nil
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token and returns the session embedded in it.
func (s *Service) Verify(token string) (*Session, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(c.Subject) == "" || strings.TrimSpace(c.OrganizationID) == "" {
		return nil, ErrInvalidToken
	}
	return &Session{
		UserID:         c.Subject,
		OrganizationID: c.OrganizationID,
		Email:          strings.TrimSpace(c.Email),
	}, nil
}
