// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

// Package librarian manages library staff accounts.
package librarian

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/auth"
)

// Field constraints.
const (
	MaxNameLength     = 100
	MaxEmailLength    = 254
	MinPasswordLength = 8
)

var phoneRegex = regexp.MustCompile(`^[+0-9 ()-]{3,32}$`)

var (
	// ErrNotFound is returned when a librarian does not exist.
	ErrNotFound = errors.New("librarian not found")

	// ErrEmailTaken is returned when another librarian already uses the email.
	ErrEmailTaken = errors.New("email already registered")
)

// Librarian is a staff member who can sign in.
type Librarian struct {
	ID           uint64
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns "First Last".
func (l *Librarian) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Principal returns the authentication view of the librarian.
func (l *Librarian) Principal() *auth.Principal {
	return &auth.Principal{
		ID:           l.ID,
		Email:        l.Email,
		PasswordHash: l.PasswordHash,
	}
}

// Validate checks the profile fields. It does not look at the password hash.
func (l *Librarian) Validate() error {
	if err := ValidateName("first name", l.FirstName); err != nil {
		return err
	}
	if err := ValidateName("last name", l.LastName); err != nil {
		return err
	}
	if err := ValidateEmail(l.Email); err != nil {
		return err
	}
	return ValidatePhoneNumber(l.PhoneNumber)
}

// ValidateName checks a first or last name.
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return oops.Code("LIBRARIAN_INVALID_NAME").
			With("field", field).
			Errorf("%s cannot be empty", field)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return oops.Code("LIBRARIAN_INVALID_NAME").
			With("field", field).
			With("max", MaxNameLength).
			Errorf("%s must be at most %d characters", field, MaxNameLength)
	}
	return nil
}

// ValidateEmail checks that email is a single bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("LIBRARIAN_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("LIBRARIAN_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("LIBRARIAN_INVALID_EMAIL").Errorf("email %q is not a valid address", email)
	}
	return nil
}

// ValidatePhoneNumber checks an optional phone number.
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return oops.Code("LIBRARIAN_INVALID_PHONE").
			Errorf("phone number may contain only digits, spaces, '+', '-', '(' and ')'")
	}
	return nil
}

// ValidatePassword checks a plaintext password before hashing.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("LIBRARIAN_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > auth.MaxPasswordBytes {
		return oops.Code("LIBRARIAN_INVALID_PASSWORD").
			With("max_bytes", auth.MaxPasswordBytes).
			Errorf("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

// normalize trims fields and lower-cases the email in place.
func (l *Librarian) normalize() {
	l.FirstName = strings.TrimSpace(l.FirstName)
	l.LastName = strings.TrimSpace(l.LastName)
	l.Email = auth.NormalizeIdentifier(l.Email)
	l.PhoneNumber = strings.TrimSpace(l.PhoneNumber)
}
