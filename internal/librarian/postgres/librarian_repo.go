// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

// Package postgres stores librarians in PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/librarian"
)

// poolIface is the subset of *pgxpool.Pool used by LibrarianRepository.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Compile-time interface check.
var _ librarian.Repository = (*LibrarianRepository)(nil)

const selectColumns = `id, first_name, last_name, email, phone_number, password_hash, created_at, updated_at`

// LibrarianRepository implements librarian.Repository.
type LibrarianRepository struct {
	pool poolIface
}

// NewLibrarianRepository creates a repository backed by pool.
func NewLibrarianRepository(pool poolIface) *LibrarianRepository {
	return &LibrarianRepository{pool: pool}
}

// Create inserts l and sets its ID.
func (r *LibrarianRepository) Create(ctx context.Context, l *librarian.Librarian) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO librarians (first_name, last_name, email, phone_number, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		l.FirstName,
		l.LastName,
		l.Email,
		l.PhoneNumber,
		l.PasswordHash,
		l.CreatedAt,
		l.UpdatedAt,
	).Scan(&l.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return emailTaken(l.Email)
		}
		return oops.Code("LIBRARIAN_CREATE_FAILED").
			With("operation", "insert librarian").
			With("email", l.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a librarian by ID.
func (r *LibrarianRepository) GetByID(ctx context.Context, id uint64) (*librarian.Librarian, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM librarians WHERE id = $1`, id)
	l, err := scanLibrarian(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("LIBRARIAN_NOT_FOUND").With("id", id).Wrap(librarian.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("LIBRARIAN_QUERY_FAILED").With("operation", "get by id").With("id", id).Wrap(err)
	}
	return l, nil
}

// GetByEmail retrieves a librarian by email, ignoring case.
func (r *LibrarianRepository) GetByEmail(ctx context.Context, email string) (*librarian.Librarian, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM librarians WHERE LOWER(email) = LOWER($1)`, email)
	l, err := scanLibrarian(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("LIBRARIAN_NOT_FOUND").With("email", email).Wrap(librarian.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("LIBRARIAN_QUERY_FAILED").With("operation", "get by email").Wrap(err)
	}
	return l, nil
}

// List returns a page of librarians ordered by ID.
func (r *LibrarianRepository) List(ctx context.Context, limit, offset int) ([]*librarian.Librarian, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM librarians ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, oops.Code("LIBRARIAN_QUERY_FAILED").With("operation", "list").Wrap(err)
	}
	defer rows.Close()

	out := make([]*librarian.Librarian, 0)
	for rows.Next() {
		l, err := scanLibrarian(rows)
		if err != nil {
			return nil, oops.Code("LIBRARIAN_QUERY_FAILED").With("operation", "scan librarian").Wrap(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("LIBRARIAN_QUERY_FAILED").With("operation", "iterate librarians").Wrap(err)
	}
	return out, nil
}

// Update saves the profile fields of l. The password hash is left alone.
func (r *LibrarianRepository) Update(ctx context.Context, l *librarian.Librarian) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE librarians
		SET first_name = $2, last_name = $3, email = $4, phone_number = $5, updated_at = $6
		WHERE id = $1
	`, l.ID, l.FirstName, l.LastName, l.Email, l.PhoneNumber, l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return emailTaken(l.Email)
		}
		return oops.Code("LIBRARIAN_UPDATE_FAILED").With("id", l.ID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("LIBRARIAN_NOT_FOUND").With("id", l.ID).Wrap(librarian.ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the password hash and stamps password_changed_at.
func (r *LibrarianRepository) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE librarians
		SET password_hash = $2, password_changed_at = now(), updated_at = now()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return oops.Code("LIBRARIAN_UPDATE_FAILED").With("operation", "update password").With("id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("LIBRARIAN_NOT_FOUND").With("id", id).Wrap(librarian.ErrNotFound)
	}
	return nil
}

// Delete removes a librarian.
func (r *LibrarianRepository) Delete(ctx context.Context, id uint64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM librarians WHERE id = $1`, id)
	if err != nil {
		return oops.Code("LIBRARIAN_DELETE_FAILED").With("id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("LIBRARIAN_NOT_FOUND").With("id", id).Wrap(librarian.ErrNotFound)
	}
	return nil
}

func scanLibrarian(row pgx.Row) (*librarian.Librarian, error) {
	var l librarian.Librarian
	err := row.Scan(
		&l.ID,
		&l.FirstName,
		&l.LastName,
		&l.Email,
		&l.PhoneNumber,
		&l.PasswordHash,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	return &l, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func emailTaken(email string) error {
	return oops.Code("LIBRARIAN_EMAIL_TAKEN").With("email", email).Wrap(librarian.ErrEmailTaken)
}
