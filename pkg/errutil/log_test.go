// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lahmamsi/librarymanagement/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("LIBRARIAN_NOT_FOUND").
		With("librarian_id", 42).
		Errorf("librarian not found")

	errutil.LogError(logger, "lookup failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "lookup failed", logEntry["msg"])
	assert.Equal(t, "LIBRARIAN_NOT_FOUND", logEntry["code"])
	assert.Contains(t, logEntry, "context")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "lookup failed", errors.New("connection refused"))

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "connection refused")
	assert.NotContains(t, logEntry, "code")
}

func TestCode(t *testing.T) {
	t.Run("oops error", func(t *testing.T) {
		assert.Equal(t, "CONFIG_INVALID", errutil.Code(oops.Code("CONFIG_INVALID").Errorf("bad")))
	})

	t.Run("wrapped sentinel keeps code", func(t *testing.T) {
		sentinel := errors.New("not found")
		err := oops.Code("LIBRARIAN_NOT_FOUND").Wrap(sentinel)
		assert.Equal(t, "LIBRARIAN_NOT_FOUND", errutil.Code(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Empty(t, errutil.Code(errors.New("plain")))
	})

	t.Run("oops error without code", func(t *testing.T) {
		assert.Empty(t, errutil.Code(oops.Errorf("no code")))
	})
}
