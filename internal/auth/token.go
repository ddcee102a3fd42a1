// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token defaults.
const (
	DefaultTokenIssuer = "libraryms"
	DefaultTokenTTL    = 10 * time.Hour

	// MinSecretLength is the shortest HMAC secret accepted, in bytes.
	MinSecretLength = 32
)

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Token is a signed bearer token.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// ExpiresIn returns the lifetime left on the token, in whole seconds.
func (t *Token) ExpiresIn(now time.Time) int64 {
	secs := int64(t.ExpiresAt.Sub(now) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Claims are the JWT claims carried by a Token.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint64   `json:"uid"`
	Roles  []string `json:"roles,omitempty"`
}

// Principal rebuilds the principal the token was issued for.
func (c *Claims) Principal() *Principal {
	return &Principal{
		ID:    c.UserID,
		Email: c.Subject,
		Roles: c.Roles,
	}
}

// TokenManager issues and validates HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, oops.Code(CodeConfigInvalid).
			With("min_length", MinSecretLength).
			Errorf("token secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL < 0 {
		return nil, configError("token ttl must be positive, got %s", cfg.TTL)
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &TokenManager{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for p.
func (m *TokenManager) Issue(p *Principal) (*Token, error) {
	if p == nil {
		return nil, oops.Code(CodeTokenInvalid).Errorf("cannot issue token without a principal")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	id := ulid.Make().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   p.Email,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: p.ID,
		Roles:  p.Authorities(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}

	return &Token{Value: signed, ID: id, ExpiresAt: expiresAt}, nil
}

// Validate parses token and checks its signature, issuer and lifetime.
func (m *TokenManager) Validate(token string) (*Claims, error) {
	if token == "" {
		return nil, oops.Code(CodeTokenInvalid).Wrap(ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code(CodeTokenExpired).Wrap(ErrInvalidToken)
		}
		return nil, oops.Code(CodeTokenInvalid).
			With("reason", err.Error()).
			Wrap(ErrInvalidToken)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, oops.Code(CodeTokenInvalid).Wrap(ErrInvalidToken)
	}

	return claims, nil
}
