// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertCodedError asserts that err wraps target and carries code. Use it
// where callers branch on the sentinel and clients see the code.
func AssertCodedError(t testing.TB, err, target error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, target), "expected %v in chain of %v", target, err)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertNoErrorContext asserts that err carries no context value for key.
// Non-oops errors carry no context and pass.
func AssertNoErrorContext(t testing.TB, err error, key string) {
	t.Helper()
	require.Error(t, err)
	if oopsErr, ok := oops.AsOops(err); ok {
		assert.NotContains(t, oopsErr.Context(), key)
	}
}
