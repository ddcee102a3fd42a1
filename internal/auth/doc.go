// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

// Package auth provides password authentication for library staff.
//
// # Components
//
//   - PrincipalLookup - finds a principal by email; fails with ErrPrincipalNotFound
//   - PasswordHasher - bcrypt (default) or argon2id digests, verified in constant time
//   - Service - the authentication entry point, built with NewService
//   - AuthenticationManager - returned by Service.Manager; adds bearer tokens
//
// # Rejections
//
// Service.Authenticate never reports why a login was rejected. An unknown
// email and a wrong password both produce an error with code
// AUTH_INVALID_CREDENTIALS matching ErrInvalidCredentials. An unknown email
// is still verified against a dummy digest so response time does not reveal
// whether the account exists.
//
// Missing collaborators are reported at construction with code CONFIG_INVALID.
package auth
