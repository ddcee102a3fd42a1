// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

// Package mocks holds testify mocks for the librarian interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lahmamsi/librarymanagement/internal/librarian"
)

// MockRepository is a mock of librarian.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a MockRepository whose expectations are asserted
// when the test finishes.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func librarianArg(args mock.Arguments, i int) *librarian.Librarian {
	if v := args.Get(i); v != nil {
		return v.(*librarian.Librarian)
	}
	return nil
}

// Create provides a mock function.
func (m *MockRepository) Create(ctx context.Context, l *librarian.Librarian) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

// GetByID provides a mock function.
func (m *MockRepository) GetByID(ctx context.Context, id uint64) (*librarian.Librarian, error) {
	args := m.Called(ctx, id)
	return librarianArg(args, 0), args.Error(1)
}

// GetByEmail provides a mock function.
func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*librarian.Librarian, error) {
	args := m.Called(ctx, email)
	return librarianArg(args, 0), args.Error(1)
}

// List provides a mock function.
func (m *MockRepository) List(ctx context.Context, limit, offset int) ([]*librarian.Librarian, error) {
	args := m.Called(ctx, limit, offset)
	var out []*librarian.Librarian
	if v := args.Get(0); v != nil {
		out = v.([]*librarian.Librarian)
	}
	return out, args.Error(1)
}

// Update provides a mock function.
func (m *MockRepository) Update(ctx context.Context, l *librarian.Librarian) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

// UpdatePassword provides a mock function.
func (m *MockRepository) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// Delete provides a mock function.
func (m *MockRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ librarian.Repository = (*MockRepository)(nil)
