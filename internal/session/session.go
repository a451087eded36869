package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession means no authenticated user is present.
var ErrNoSession = errors.New("session: no authenticated session")

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Admin  bool
}

// Manager parses and issues HS256 bearer tokens.
type Manager struct {
	secret []byte
}

// NewManager creates a Manager with the shared signing secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Parse validates a bearer token and extracts the caller identity.
func (m *Manager) Parse(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrNoSession
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("parse token: %w", errors.Join(err, ErrNoSession))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrNoSession
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrNoSession
	}
	admin, _ := claims["admin"].(bool)
	return &Identity{UserID: sub, Admin: admin}, nil
}

// Issue signs a token for userID. Used by tests and local tooling; in
// production tokens come from the hosted auth service.
func (m *Manager) Issue(userID string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"admin": admin,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
