// Package auth issues and verifies the bearer tokens that carry caller identity.
//
// Tokens are HS256 JWTs whose subject is the user id.
//
// Example usage:
//
//	tokens := auth.NewTokenService(cfg.Auth)
//	token, _ := tokens.Issue("user-123")
//	userID, err := tokens.Verify(token)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
)

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid or expired token")

const tokenTypeAccess = "access"

// Claims are the claims carried by access tokens
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService signs and validates access tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service from auth config
func NewTokenService(cfg config.AuthConfig) *TokenService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs an access token for userID
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if len(s.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}

	now := s.now()
	claims := Claims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates tokenString and returns the user id it was issued for
func (s *TokenService) Verify(tokenString string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != tokenTypeAccess || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
