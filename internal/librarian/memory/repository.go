// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

// Package memory provides an in-process librarian.Repository.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/librarian"
)

// Repository is a map-backed librarian.Repository safe for concurrent use.
type Repository struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]*librarian.Librarian
}

// NewRepository creates an empty Repository.
func NewRepository() *Repository {
	return &Repository{byID: make(map[uint64]*librarian.Librarian)}
}

// Create stores a copy of l and assigns its ID.
func (r *Repository) Create(_ context.Context, l *librarian.Librarian) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(l.Email, 0) {
		return oops.Code("LIBRARIAN_EMAIL_TAKEN").
			With("email", l.Email).
			Wrap(librarian.ErrEmailTaken)
	}
	r.nextID++
	l.ID = r.nextID
	cp := *l
	r.byID[l.ID] = &cp
	return nil
}

// GetByID returns a copy of the librarian.
func (r *Repository) GetByID(_ context.Context, id uint64) (*librarian.Librarian, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byID[id]
	if !ok {
		return nil, notFound("id", id)
	}
	cp := *l
	return &cp, nil
}

// GetByEmail returns a copy of the librarian with a case-insensitive email match.
func (r *Repository) GetByEmail(_ context.Context, email string) (*librarian.Librarian, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.byID {
		if strings.EqualFold(l.Email, email) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, notFound("email", email)
}

// List returns copies ordered by ID.
func (r *Repository) List(_ context.Context, limit, offset int) ([]*librarian.Librarian, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*librarian.Librarian, 0, limit)
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		cp := *r.byID[ids[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// Update replaces the profile fields of an existing librarian.
func (r *Repository) Update(_ context.Context, l *librarian.Librarian) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[l.ID]
	if !ok {
		return notFound("id", l.ID)
	}
	if r.emailTakenLocked(l.Email, l.ID) {
		return oops.Code("LIBRARIAN_EMAIL_TAKEN").
			With("email", l.Email).
			Wrap(librarian.ErrEmailTaken)
	}
	existing.FirstName = l.FirstName
	existing.LastName = l.LastName
	existing.Email = l.Email
	existing.PhoneNumber = l.PhoneNumber
	existing.UpdatedAt = l.UpdatedAt
	return nil
}

// UpdatePassword replaces the password hash.
func (r *Repository) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byID[id]
	if !ok {
		return notFound("id", id)
	}
	l.PasswordHash = passwordHash
	return nil
}

// Delete removes the librarian.
func (r *Repository) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return notFound("id", id)
	}
	delete(r.byID, id)
	return nil
}

func (r *Repository) emailTakenLocked(email string, exceptID uint64) bool {
	for id, l := range r.byID {
		if id != exceptID && strings.EqualFold(l.Email, email) {
			return true
		}
	}
	return false
}

func notFound(key string, value any) error {
	return oops.Code("LIBRARIAN_NOT_FOUND").
		With(key, value).
		Wrap(librarian.ErrNotFound)
}

var _ librarian.Repository = (*Repository)(nil)
