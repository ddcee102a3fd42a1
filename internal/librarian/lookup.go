// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package librarian

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/auth"
)

// CredentialLookup finds librarians by email for authentication.
type CredentialLookup struct {
	repo Repository
}

// NewCredentialLookup creates a CredentialLookup over repo.
func NewCredentialLookup(repo Repository) *CredentialLookup {
	return &CredentialLookup{repo: repo}
}

// Lookup returns the principal registered under identifier.
func (l *CredentialLookup) Lookup(ctx context.Context, identifier string) (*auth.Principal, error) {
	lib, err := l.repo.GetByEmail(ctx, auth.NormalizeIdentifier(identifier))
	if errors.Is(err, ErrNotFound) {
		return nil, auth.PrincipalNotFound(identifier)
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get librarian by email").
			Wrap(err)
	}
	return lib.Principal(), nil
}

var _ auth.PrincipalLookup = (*CredentialLookup)(nil)
