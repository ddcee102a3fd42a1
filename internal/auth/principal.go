// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"context"
	"log/slog"
	"strings"
)

// RoleLibrarian is granted to every principal that carries no explicit roles.
const RoleLibrarian = "ROLE_LIBRARIAN"

// Principal is an identity that can be authenticated.
type Principal struct {
	ID           uint64   `json:"id"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Roles        []string `json:"roles,omitempty"`
}

// Authorities returns the principal's roles, defaulting to RoleLibrarian.
func (p *Principal) Authorities() []string {
	if len(p.Roles) == 0 {
		return []string{RoleLibrarian}
	}
	return p.Roles
}

// LogValue keeps the password hash out of logs.
func (p *Principal) LogValue() slog.Value {
	if p == nil {
		return slog.StringValue("<nil>")
	}
	return slog.GroupValue(
		slog.Uint64("id", p.ID),
		slog.String("email", p.Email),
	)
}

// PrincipalLookup finds the principal registered under an identifier.
type PrincipalLookup interface {
	// Lookup returns the principal whose email equals identifier.
	// Returns an error matching ErrPrincipalNotFound when none exists.
	Lookup(ctx context.Context, identifier string) (*Principal, error)
}

// PrincipalLookupFunc adapts a function to PrincipalLookup.
type PrincipalLookupFunc func(ctx context.Context, identifier string) (*Principal, error)

// Lookup calls f.
func (f PrincipalLookupFunc) Lookup(ctx context.Context, identifier string) (*Principal, error) {
	return f(ctx, identifier)
}

// PasswordUpgrader persists a recomputed hash after a successful login.
type PasswordUpgrader interface {
	UpgradePassword(ctx context.Context, principalID uint64, passwordHash string) error
}

// NormalizeIdentifier trims and lower-cases an email identifier.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

var (
	_ PrincipalLookup = PrincipalLookupFunc(nil)
	_ slog.LogValuer  = (*Principal)(nil)
)
