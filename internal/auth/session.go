package auth

import (
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sessions signs and verifies player session tokens. Keys are generated
// at startup; tokens only need to outlive the process that issued them.
type Sessions struct {
	mu         sync.RWMutex
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	ttl        time.Duration
}

// NewSessions generates a fresh ed25519 key pair. A zero ttl issues
// tokens without an expiry claim.
func NewSessions(ttl time.Duration) (*Sessions, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate session key pair: %w", err)
	}
	return &Sessions{privateKey: priv, publicKey: pub, ttl: ttl}, nil
}

// Issue creates a signed token with the player id as subject.
func (s *Sessions) Issue(playerID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claims := jwt.MapClaims{"sub": playerID.String()}
	if s.ttl > 0 {
		claims["exp"] = time.Now().Add(s.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// Verify parses a token and returns the player id it was issued for.
func (s *Sessions) Verify(tokenString string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse session token: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, fmt.Errorf("invalid session token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid session claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing sub in session token")
	}
	playerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid player id in session token: %w", err)
	}
	return playerID, nil
}
