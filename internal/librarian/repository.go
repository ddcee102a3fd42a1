// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package librarian

import "context"

// Repository manages librarian persistence.
type Repository interface {
	// Create stores a new librarian and sets its ID and timestamps.
	// Returns ErrEmailTaken if the email is already registered.
	Create(ctx context.Context, l *Librarian) error

	// GetByID retrieves a librarian by ID.
	GetByID(ctx context.Context, id uint64) (*Librarian, error)

	// GetByEmail retrieves a librarian by email (case-insensitive).
	// Returns ErrNotFound if no librarian has the given email.
	GetByEmail(ctx context.Context, email string) (*Librarian, error)

	// List returns librarians ordered by ID.
	List(ctx context.Context, limit, offset int) ([]*Librarian, error)

	// Update saves profile fields. Returns ErrEmailTaken on an email conflict.
	Update(ctx context.Context, l *Librarian) error

	// UpdatePassword replaces only the password hash.
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error

	// Delete removes a librarian.
	Delete(ctx context.Context, id uint64) error
}
