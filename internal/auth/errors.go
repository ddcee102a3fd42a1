// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Error codes produced by this package.
const (
	CodePrincipalNotFound  = "AUTH_PRINCIPAL_NOT_FOUND"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeLoginFailed        = "AUTH_LOGIN_FAILED"
	CodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	CodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	CodeConfigInvalid      = "CONFIG_INVALID"
)

// InvalidCredentialsMessage is the only message a rejected login ever carries.
const InvalidCredentialsMessage = "invalid email or password"

var (
	// ErrPrincipalNotFound is returned by a PrincipalLookup when no principal
	// matches the identifier. It never leaves Service.Authenticate.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrInvalidCredentials is the generic rejection for any failed login.
	ErrInvalidCredentials = errors.New(InvalidCredentialsMessage)

	// ErrInvalidToken is returned when a bearer token cannot be trusted.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// PrincipalNotFound builds the lookup failure for identifier.
func PrincipalNotFound(identifier string) error {
	return oops.Code(CodePrincipalNotFound).
		With("email", identifier).
		Wrapf(ErrPrincipalNotFound, "can't find librarian with email = %s", identifier)
}

// invalidCredentials builds a fresh rejection error. Callers must not attach
// anything that would let a client tell the failure causes apart.
func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

// configError reports a missing or malformed collaborator at construction time.
func configError(format string, args ...any) error {
	return oops.Code(CodeConfigInvalid).Errorf(format, args...)
}
