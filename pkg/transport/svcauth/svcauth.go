// Package svcauth issues and validates the service-principal JWTs that
// authenticate calls between buckets, the index, and operator tooling —
// the "caller" half of every inter-component call named in §6's external
// interfaces (c2c_sync_index must reject non-index callers; add_user and
// friends are gated on a service principal set).
package svcauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken        = errors.New("invalid service token")
	ErrExpiredToken        = errors.New("service token has expired")
	ErrPrincipalNotAllowed = errors.New("principal is not authorized for this operation")
	ErrInvalidSecretLength = errors.New("jwt secret must be at least 32 characters")
)

// Principal names a caller: one of a bucket, the index, or an operator
// identity, as authenticated by a signed token's subject claim.
type Principal string

// Claims carries the service principal's identity and the component kind
// it claims to be, so a handler like c2c_sync_index can reject anything
// that isn't the configured index without a separate allowlist lookup.
type Claims struct {
	jwt.RegisteredClaims
	Principal Principal `json:"principal"`
	Kind      string    `json:"kind"` // "bucket", "index", or "operator"
}

// Config configures a Service's signing and validation behavior.
type Config struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
}

// Service issues and validates service-principal tokens over HMAC-SHA256.
type Service struct {
	config Config
}

// New creates a Service. Returns ErrInvalidSecretLength if the secret is
// shorter than 32 characters, matching the signing-key hygiene the
// control-plane JWT service enforces.
func New(config Config) (*Service, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if config.Issuer == "" {
		config.Issuer = "coldvault"
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = time.Hour
	}
	return &Service{config: config}, nil
}

// IssueToken signs a token asserting principal is a component of the given kind.
func (s *Service) IssueToken(principal Principal, kind string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   string(principal),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
		},
		Principal: principal,
		Kind:      kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequirePrincipal validates tokenString and additionally checks its
// subject is exactly expected — the guard c2c_sync_index uses to reject
// callers that are not the configured index.
func (s *Service) RequirePrincipal(tokenString string, expected Principal) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Principal != expected {
		return nil, ErrPrincipalNotAllowed
	}
	return claims, nil
}

// RequireKind validates tokenString and checks its component kind, used by
// operator-only endpoints (add_user and the rollout endpoints) that are
// gated on "is this an operator" rather than a specific principal name.
func (s *Service) RequireKind(tokenString string, expected string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != expected {
		return nil, ErrPrincipalNotAllowed
	}
	return claims, nil
}
