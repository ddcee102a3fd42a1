// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package librarian_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
	"github.com/lahmamsi/librarymanagement/internal/librarian/mocks"
	"github.com/lahmamsi/librarymanagement/pkg/errutil"
)

func TestCredentialLookup_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("returns principal for known email", func(t *testing.T) {
		repo := mocks.NewMockRepository(t)
		repo.On("GetByEmail", ctx, "jane@lib.org").Return(&librarian.Librarian{
			ID:           4,
			Email:        "jane@lib.org",
			PasswordHash: "$2a$10$hash",
		}, nil)

		p, err := librarian.NewCredentialLookup(repo).Lookup(ctx, " Jane@Lib.org ")
		require.NoError(t, err)
		assert.Equal(t, uint64(4), p.ID)
		assert.Equal(t, "$2a$10$hash", p.PasswordHash)
	})

	t.Run("unknown email is principal not found carrying the identifier", func(t *testing.T) {
		repo := mocks.NewMockRepository(t)
		repo.On("GetByEmail", ctx, "nobody@lib.org").
			Return(nil, oops.Code("LIBRARIAN_NOT_FOUND").Wrap(librarian.ErrNotFound))

		_, err := librarian.NewCredentialLookup(repo).Lookup(ctx, "nobody@lib.org")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrPrincipalNotFound)
		assert.Contains(t, err.Error(), "can't find librarian with email = nobody@lib.org")
		errutil.AssertErrorCode(t, err, "AUTH_PRINCIPAL_NOT_FOUND")
	})

	t.Run("repository failure is not a not-found", func(t *testing.T) {
		repo := mocks.NewMockRepository(t)
		repo.On("GetByEmail", ctx, "jane@lib.org").Return(nil, errors.New("connection refused"))

		_, err := librarian.NewCredentialLookup(repo).Lookup(ctx, "jane@lib.org")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrPrincipalNotFound)
		errutil.AssertErrorCode(t, err, "AUTH_LOOKUP_FAILED")
	})
}
