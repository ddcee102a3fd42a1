// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
)

// AuthenticationManager is the capability handed to the transport layer:
// authenticate credentials, then mint and check bearer tokens.
type AuthenticationManager interface {
	// Authenticate delegates to Service.Authenticate.
	Authenticate(ctx context.Context, identifier, plaintext string) (*Principal, error)

	// IssueToken mints a bearer token for an authenticated principal.
	IssueToken(ctx context.Context, p *Principal) (*Token, error)

	// ValidateToken verifies a bearer token and returns its claims.
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

type manager struct {
	service *Service
	tokens  *TokenManager
}

func (m *manager) Authenticate(ctx context.Context, identifier, plaintext string) (*Principal, error) {
	return m.service.Authenticate(ctx, identifier, plaintext)
}

func (m *manager) IssueToken(_ context.Context, p *Principal) (*Token, error) {
	if m.tokens == nil {
		return nil, oops.Code(CodeConfigInvalid).Errorf("token manager is not configured")
	}
	return m.tokens.Issue(p)
}

func (m *manager) ValidateToken(_ context.Context, token string) (*Claims, error) {
	if m.tokens == nil {
		return nil, oops.Code(CodeConfigInvalid).Errorf("token manager is not configured")
	}
	return m.tokens.Validate(token)
}

var _ AuthenticationManager = (*manager)(nil)
