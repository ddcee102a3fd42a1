// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lahmamsi/librarymanagement/internal/auth"
)

// MockPasswordUpgrader is a mock of auth.PasswordUpgrader.
type MockPasswordUpgrader struct {
	mock.Mock
}

// NewMockPasswordUpgrader creates a MockPasswordUpgrader whose expectations are
// asserted when the test finishes.
func NewMockPasswordUpgrader(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordUpgrader {
	m := &MockPasswordUpgrader{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// UpgradePassword provides a mock function.
func (m *MockPasswordUpgrader) UpgradePassword(ctx context.Context, principalID uint64, passwordHash string) error {
	args := m.Called(ctx, principalID, passwordHash)
	return args.Error(0)
}

var _ auth.PasswordUpgrader = (*MockPasswordUpgrader)(nil)
