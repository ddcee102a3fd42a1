// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

// Package mocks holds testify mocks for the auth interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lahmamsi/librarymanagement/internal/auth"
)

// MockPrincipalLookup is a mock of auth.PrincipalLookup.
type MockPrincipalLookup struct {
	mock.Mock
}

// NewMockPrincipalLookup creates a MockPrincipalLookup whose expectations are
// asserted when the test finishes.
func NewMockPrincipalLookup(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPrincipalLookup {
	m := &MockPrincipalLookup{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Lookup provides a mock function.
func (m *MockPrincipalLookup) Lookup(ctx context.Context, identifier string) (*auth.Principal, error) {
	args := m.Called(ctx, identifier)
	var p *auth.Principal
	if v := args.Get(0); v != nil {
		p = v.(*auth.Principal)
	}
	return p, args.Error(1)
}

var _ auth.PrincipalLookup = (*MockPrincipalLookup)(nil)
