// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package librarian

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/auth"
)

// Paging limits for List.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// RegisterInput holds the fields needed to create a librarian.
type RegisterInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// Service coordinates librarian account operations.
type Service struct {
	repo   Repository
	hasher auth.PasswordHasher
	slots  *auth.HashSlots
	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithHashSlots runs password hashing under slots, normally the same bound
// the authentication service uses.
func WithHashSlots(slots *auth.HashSlots) ServiceOption {
	return func(s *Service) {
		s.slots = slots
	}
}

// NewService creates a librarian Service.
func NewService(repo Repository, hasher auth.PasswordHasher, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, oops.Code(auth.CodeConfigInvalid).Errorf("librarian repository is required")
	}
	if hasher == nil {
		return nil, oops.Code(auth.CodeConfigInvalid).Errorf("password hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, hasher: hasher, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) hash(ctx context.Context, password string) (string, error) {
	var hash string
	var hashErr error
	if err := s.slots.Run(ctx, func() { hash, hashErr = s.hasher.Hash(password) }); err != nil {
		return "", err
	}
	return hash, hashErr
}

func (s *Service) verify(ctx context.Context, password, hash string) (bool, error) {
	var ok bool
	var verifyErr error
	if err := s.slots.Run(ctx, func() { ok, verifyErr = s.hasher.Verify(password, hash) }); err != nil {
		return false, err
	}
	return ok, verifyErr
}

// Register validates input, hashes the password and stores a new librarian.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Librarian, error) {
	l := &Librarian{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
	}
	l.normalize()
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		return nil, oops.Code("LIBRARIAN_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}
	l.PasswordHash = hash

	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "librarian registered", "librarian_id", l.ID, "email", l.Email)
	return l, nil
}

// Get returns the librarian with the given ID.
func (s *Service) Get(ctx context.Context, id uint64) (*Librarian, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns the librarian with the given email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Librarian, error) {
	return s.repo.GetByEmail(ctx, auth.NormalizeIdentifier(email))
}

// List returns a page of librarians. Out-of-range paging values are clamped.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Librarian, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// Update replaces the profile fields of librarian id with those in d.
func (s *Service) Update(ctx context.Context, id uint64, d DTO) (*Librarian, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d.Apply(l)
	l.normalize()
	if err := l.Validate(); err != nil {
		return nil, err
	}
	l.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id uint64, current, next string) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.verify(ctx, current, l.PasswordHash)
	if err != nil {
		return oops.Code("LIBRARIAN_PASSWORD_CHANGE_FAILED").
			With("operation", "verify current password").
			With("librarian_id", id).
			Wrap(err)
	}
	if !ok {
		return oops.Code("LIBRARIAN_PASSWORD_MISMATCH").
			With("librarian_id", id).
			Errorf("current password is incorrect")
	}

	if err := ValidatePassword(next); err != nil {
		return err
	}

	hash, err := s.hash(ctx, next)
	if err != nil {
		return oops.Code("LIBRARIAN_PASSWORD_CHANGE_FAILED").
			With("operation", "hash password").
			With("librarian_id", id).
			Wrap(err)
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "librarian password changed", "librarian_id", id)
	return nil
}

// UpgradePassword stores a recomputed hash for librarian id.
func (s *Service) UpgradePassword(ctx context.Context, id uint64, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

// Delete removes the librarian with the given ID.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "librarian deleted", "librarian_id", id)
	return nil
}

var _ auth.PasswordUpgrader = (*Service)(nil)
