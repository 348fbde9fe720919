package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID    uint   `json:"user_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens. Revoked session ids are
// remembered until their token would have expired anyway.
type Issuer struct {
	secret   []byte
	lifetime time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewIssuer(secret string, lifetime time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), lifetime: lifetime, revoked: make(map[string]time.Time)}
}

// Revoke invalidates every token carrying the session id of claims.
func (i *Issuer) Revoke(claims Claims) {
	expires := time.Now().Add(i.lifetime)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	for sid, until := range i.revoked {
		if now.After(until) {
			delete(i.revoked, sid)
		}
	}
	i.revoked[claims.SessionID] = expires
}

func (i *Issuer) isRevoked(sessionID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.revoked[sessionID]
	return ok
}

// Issue returns a signed token for userID bound to a fresh session id.
func (i *Issuer) Issue(userID uint) (string, Claims, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("error signing token: %w", err)
	}
	return token, claims, nil
}

func (i *Issuer) Parse(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.SessionID == "" || i.isRevoked(claims.SessionID) {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
