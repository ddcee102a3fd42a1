// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lahmamsi/librarymanagement/pkg/errutil"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestTokenManager(t *testing.T, now time.Time) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(TokenConfig{Secret: testSecret, TTL: time.Hour})
	require.NoError(t, err)
	tm.now = func() time.Time { return now }
	return tm
}

func TestNewTokenManager(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewTokenManager(TokenConfig{Secret: []byte("short")})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, CodeConfigInvalid)
	})

	t.Run("rejects negative ttl", func(t *testing.T) {
		_, err := NewTokenManager(TokenConfig{Secret: testSecret, TTL: -time.Second})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, CodeConfigInvalid)
	})

	t.Run("applies defaults", func(t *testing.T) {
		tm, err := NewTokenManager(TokenConfig{Secret: testSecret})
		require.NoError(t, err)
		assert.Equal(t, DefaultTokenTTL, tm.TTL())
		assert.Equal(t, DefaultTokenIssuer, tm.issuer)
	})
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tm := newTestTokenManager(t, now)

	token, err := tm.Issue(&Principal{ID: 42, Email: "a@b.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)
	assert.Equal(t, now.Add(time.Hour), token.ExpiresAt)
	assert.Equal(t, int64(3600), token.ExpiresIn(now))
	assert.Equal(t, 3, strings.Count(token.Value, ".")+1)

	claims, err := tm.Validate(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Subject)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, []string{RoleLibrarian}, claims.Roles)
	assert.Equal(t, token.ID, claims.ID)

	p := claims.Principal()
	assert.Equal(t, uint64(42), p.ID)
	assert.Equal(t, "a@b.com", p.Email)
	assert.Empty(t, p.PasswordHash)
}

func TestTokenManager_Issue_NilPrincipal(t *testing.T) {
	tm := newTestTokenManager(t, time.Now())
	_, err := tm.Issue(nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeTokenInvalid)
}

func TestTokenManager_Validate_Rejects(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tm := newTestTokenManager(t, now)
	token, err := tm.Issue(&Principal{ID: 1, Email: "a@b.com"})
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := tm.Validate("")
		errutil.AssertErrorCode(t, err, CodeTokenInvalid)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Validate("not.a.token")
		errutil.AssertErrorCode(t, err, CodeTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		later := newTestTokenManager(t, now.Add(2*time.Hour))
		_, err := later.Validate(token.Value)
		errutil.AssertErrorCode(t, err, CodeTokenExpired)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager(TokenConfig{Secret: []byte("ffffffffffffffffffffffffffffffff")})
		require.NoError(t, err)
		_, err = other.Validate(token.Value)
		errutil.AssertErrorCode(t, err, CodeTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewTokenManager(TokenConfig{Secret: testSecret, Issuer: "someone-else"})
		require.NoError(t, err)
		other.now = func() time.Time { return now }
		_, err = other.Validate(token.Value)
		errutil.AssertErrorCode(t, err, CodeTokenInvalid)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    DefaultTokenIssuer,
				Subject:   "a@b.com",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
		require.NoError(t, err)
		_, err = tm.Validate(signed)
		errutil.AssertErrorCode(t, err, CodeTokenInvalid)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    DefaultTokenIssuer,
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)
		_, err = tm.Validate(signed)
		errutil.AssertErrorCode(t, err, CodeTokenInvalid)
	})
}

func TestManager_PassThrough(t *testing.T) {
	lookup := PrincipalLookupFunc(func(_ context.Context, id string) (*Principal, error) {
		return nil, PrincipalNotFound(id)
	})
	hasher, err := NewBcryptHasher(4)
	require.NoError(t, err)

	t.Run("without token manager", func(t *testing.T) {
		svc, err := NewService(lookup, hasher)
		require.NoError(t, err)

		_, err = svc.Manager().IssueToken(context.Background(), &Principal{ID: 1, Email: "a@b.com"})
		errutil.AssertErrorCode(t, err, CodeConfigInvalid)
		_, err = svc.Manager().ValidateToken(context.Background(), "x")
		errutil.AssertErrorCode(t, err, CodeConfigInvalid)
	})

	t.Run("with token manager", func(t *testing.T) {
		tm := newTestTokenManager(t, time.Now())
		svc, err := NewService(lookup, hasher, WithTokenManager(tm))
		require.NoError(t, err)
		m := svc.Manager()

		_, err = m.Authenticate(context.Background(), "nobody@b.com", "secret")
		errutil.AssertErrorCode(t, err, CodeInvalidCredentials)

		token, err := m.IssueToken(context.Background(), &Principal{ID: 1, Email: "a@b.com"})
		require.NoError(t, err)
		claims, err := m.ValidateToken(context.Background(), token.Value)
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", claims.Subject)
	})
}
