package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventmanager/internal/domain"
)

// TokenConfig is the signing configuration for access tokens. It is built
// once at startup and never mutated.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// JWTService issues and verifies HS256 access tokens whose subject is a username.
type JWTService struct {
	cfg TokenConfig
	now func() time.Time
}

var (
	_ domain.TokenIssuer   = (*JWTService)(nil)
	_ domain.TokenVerifier = (*JWTService)(nil)
)

// NewJWTService returns a JWTService. It fails when the secret is empty or the TTL is not positive.
func NewJWTService(cfg TokenConfig) (*JWTService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt: empty signing secret")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt: token ttl must be positive")
	}
	return &JWTService{cfg: cfg, now: time.Now}, nil
}

func (s *JWTService) Issue(subject string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the token subject. Any parse, signature or expiry failure
// collapses into domain.ErrInvalidToken.
func (s *JWTService) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
