package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/banksaga/internal/domain"
)

// Issuer is written into every service token.
const Issuer = "banksaga"

// Claims identifies the calling service.
type Claims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies short-lived service-to-service tokens.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// Generate issues a token for the named service.
func (m *JWTManager) Generate(service string) (string, error) {
	now := m.now()
	claims := Claims{
		Service: service,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   service,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify verifies a JWT token and returns the claims
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithIssuer(Issuer),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Service == "" {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// TokenSource caches a service token and renews it shortly before expiry.
type TokenSource struct {
	manager *JWTManager
	service string

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenSource returns tokens for service signed by manager.
func NewTokenSource(manager *JWTManager, service string) *TokenSource {
	return &TokenSource{manager: manager, service: service}
}

// Token returns a token valid for at least a fifth of its lifetime.
func (s *TokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.manager.now()
	if s.token != "" && now.Add(s.manager.tokenDuration/5).Before(s.expires) {
		return s.token, nil
	}

	token, err := s.manager.Generate(s.service)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expires = now.Add(s.manager.tokenDuration)
	return token, nil
}
