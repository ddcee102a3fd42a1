// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package librarian_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	authmocks "github.com/lahmamsi/librarymanagement/internal/auth/mocks"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
	"github.com/lahmamsi/librarymanagement/internal/librarian/mocks"
	"github.com/lahmamsi/librarymanagement/pkg/errutil"
)

func newTestService(t *testing.T) (*librarian.Service, *mocks.MockRepository, *authmocks.MockPasswordHasher) {
	t.Helper()
	repo := mocks.NewMockRepository(t)
	hasher := authmocks.NewMockPasswordHasher(t)
	svc, err := librarian.NewService(repo, hasher, nil)
	require.NoError(t, err)
	return svc, repo, hasher
}

func TestNewService_NilDependencies(t *testing.T) {
	_, err := librarian.NewService(nil, authmocks.NewMockPasswordHasher(t), nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "librarian repository is required")

	_, err = librarian.NewService(mocks.NewMockRepository(t), nil, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "password hasher is required")
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	input := librarian.RegisterInput{
		FirstName:   " Jane ",
		LastName:    "Doe",
		Email:       "Jane@Lib.org",
		PhoneNumber: "555-0100",
		Password:    "correct horse",
	}

	t.Run("hashes password and normalizes fields", func(t *testing.T) {
		svc, repo, hasher := newTestService(t)

		hasher.On("Hash", "correct horse").Return("$2a$10$hashed", nil)
		repo.On("Create", ctx, mock.AnythingOfType("*librarian.Librarian")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*librarian.Librarian).ID = 11
			}).
			Return(nil)

		l, err := svc.Register(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, uint64(11), l.ID)
		assert.Equal(t, "Jane", l.FirstName)
		assert.Equal(t, "jane@lib.org", l.Email)
		assert.Equal(t, "$2a$10$hashed", l.PasswordHash)
		assert.False(t, l.CreatedAt.IsZero())
	})

	t.Run("rejects invalid profile before hashing", func(t *testing.T) {
		svc, _, hasher := newTestService(t)

		bad := input
		bad.Email = "not-an-email"
		_, err := svc.Register(ctx, bad)
		errutil.AssertErrorCode(t, err, "LIBRARIAN_INVALID_EMAIL")
		hasher.AssertNotCalled(t, "Hash", mock.Anything)
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		bad := input
		bad.Password = "short"
		_, err := svc.Register(ctx, bad)
		errutil.AssertErrorCode(t, err, "LIBRARIAN_INVALID_PASSWORD")
	})

	t.Run("duplicate email surfaces ErrEmailTaken", func(t *testing.T) {
		svc, repo, hasher := newTestService(t)

		hasher.On("Hash", "correct horse").Return("$2a$10$hashed", nil)
		repo.On("Create", ctx, mock.AnythingOfType("*librarian.Librarian")).
			Return(oops.Code("LIBRARIAN_EMAIL_TAKEN").Wrap(librarian.ErrEmailTaken))

		_, err := svc.Register(ctx, input)
		assert.ErrorIs(t, err, librarian.ErrEmailTaken)
	})

	t.Run("hash failure", func(t *testing.T) {
		svc, _, hasher := newTestService(t)

		hasher.On("Hash", "correct horse").Return("", errors.New("boom"))
		_, err := svc.Register(ctx, input)
		errutil.AssertErrorCode(t, err, "LIBRARIAN_REGISTER_FAILED")
	})
}

func TestService_List_ClampsPaging(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{"defaults", 0, 0, librarian.DefaultPageSize, 0},
		{"caps limit", 1000, 10, librarian.MaxPageSize, 10},
		{"negative offset", 10, -5, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			repo.On("List", ctx, tt.wantLimit, tt.wantOffset).Return([]*librarian.Librarian{}, nil)

			got, err := svc.List(ctx, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("applies dto and keeps id and hash", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		existing := &librarian.Librarian{ID: 3, FirstName: "Old", LastName: "Name", Email: "old@lib.org", PasswordHash: "h"}

		repo.On("GetByID", ctx, uint64(3)).Return(existing, nil)
		repo.On("Update", ctx, mock.MatchedBy(func(l *librarian.Librarian) bool {
			return l.ID == 3 && l.Email == "new@lib.org" && l.PasswordHash == "h"
		})).Return(nil)

		l, err := svc.Update(ctx, 3, librarian.DTO{ID: 99, FirstName: "New", LastName: "Name", Email: "NEW@lib.org"})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), l.ID)
		assert.Equal(t, "New", l.FirstName)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("GetByID", ctx, uint64(3)).Return(nil, oops.Code("LIBRARIAN_NOT_FOUND").Wrap(librarian.ErrNotFound))

		_, err := svc.Update(ctx, 3, librarian.DTO{FirstName: "A", LastName: "B", Email: "a@b.com"})
		assert.ErrorIs(t, err, librarian.ErrNotFound)
	})

	t.Run("invalid update is rejected", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("GetByID", ctx, uint64(3)).Return(&librarian.Librarian{ID: 3}, nil)

		_, err := svc.Update(ctx, 3, librarian.DTO{FirstName: "", LastName: "B", Email: "a@b.com"})
		errutil.AssertErrorCode(t, err, "LIBRARIAN_INVALID_NAME")
	})
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	existing := &librarian.Librarian{ID: 5, Email: "a@b.com", PasswordHash: "old-hash"}

	t.Run("success", func(t *testing.T) {
		svc, repo, hasher := newTestService(t)
		repo.On("GetByID", ctx, uint64(5)).Return(existing, nil)
		hasher.On("Verify", "oldpassword", "old-hash").Return(true, nil)
		hasher.On("Hash", "newpassword").Return("new-hash", nil)
		repo.On("UpdatePassword", ctx, uint64(5), "new-hash").Return(nil)

		require.NoError(t, svc.ChangePassword(ctx, 5, "oldpassword", "newpassword"))
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc, repo, hasher := newTestService(t)
		repo.On("GetByID", ctx, uint64(5)).Return(existing, nil)
		hasher.On("Verify", "guess", "old-hash").Return(false, nil)

		err := svc.ChangePassword(ctx, 5, "guess", "newpassword")
		errutil.AssertErrorCode(t, err, "LIBRARIAN_PASSWORD_MISMATCH")
	})

	t.Run("weak new password", func(t *testing.T) {
		svc, repo, hasher := newTestService(t)
		repo.On("GetByID", ctx, uint64(5)).Return(existing, nil)
		hasher.On("Verify", "oldpassword", "old-hash").Return(true, nil)

		err := svc.ChangePassword(ctx, 5, "oldpassword", "short")
		errutil.AssertErrorCode(t, err, "LIBRARIAN_INVALID_PASSWORD")
	})

	t.Run("corrupt stored hash", func(t *testing.T) {
		svc, repo, hasher := newTestService(t)
		repo.On("GetByID", ctx, uint64(5)).Return(existing, nil)
		hasher.On("Verify", "oldpassword", "old-hash").Return(false, errors.New("bad hash"))

		err := svc.ChangePassword(ctx, 5, "oldpassword", "newpassword")
		errutil.AssertErrorCode(t, err, "LIBRARIAN_PASSWORD_CHANGE_FAILED")
	})
}

func TestService_ChangePassword_SharesHashSlots(t *testing.T) {
	slots, err := auth.NewHashSlots(1)
	require.NoError(t, err)

	repo := mocks.NewMockRepository(t)
	hasher := authmocks.NewMockPasswordHasher(t)
	svc, err := librarian.NewService(repo, hasher, nil, librarian.WithHashSlots(slots))
	require.NoError(t, err)

	existing := &librarian.Librarian{ID: 5, Email: "a@b.com", PasswordHash: "old-hash"}
	repo.On("GetByID", mock.Anything, uint64(5)).Return(existing, nil)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = slots.Run(context.Background(), func() {
			close(held)
			<-release
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = svc.ChangePassword(ctx, 5, "oldpassword", "newpassword")
	errutil.AssertErrorCode(t, err, "LIBRARIAN_PASSWORD_CHANGE_FAILED")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	hasher.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)

	close(release)
	<-done

	hasher.On("Verify", "oldpassword", "old-hash").Return(true, nil)
	hasher.On("Hash", "newpassword").Return("new-hash", nil)
	repo.On("UpdatePassword", mock.Anything, uint64(5), "new-hash").Return(nil)
	require.NoError(t, svc.ChangePassword(context.Background(), 5, "oldpassword", "newpassword"))
}

func TestService_UpgradeAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	repo.On("UpdatePassword", ctx, uint64(2), "rehashed").Return(nil)
	repo.On("Delete", ctx, uint64(2)).Return(nil)
	repo.On("Delete", ctx, uint64(3)).Return(oops.Code("LIBRARIAN_NOT_FOUND").Wrap(librarian.ErrNotFound))

	require.NoError(t, svc.UpgradePassword(ctx, 2, "rehashed"))
	require.NoError(t, svc.Delete(ctx, 2))
	assert.ErrorIs(t, svc.Delete(ctx, 3), librarian.ErrNotFound)
}
