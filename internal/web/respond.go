// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
	"github.com/lahmamsi/librarymanagement/pkg/errutil"
)

// Codes emitted by the HTTP layer itself.
const (
	CodeRequestInvalid = "REQUEST_INVALID"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeInternal       = "INTERNAL"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// decodeJSON reads a size-limited JSON body into v and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return oops.Code(CodeRequestInvalid).Wrapf(err, "invalid request body")
	}
	return nil
}

// renderError maps err to a status and writes it. Server errors are logged
// and replaced by a generic message.
func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.LogError(logger.With("method", r.Method, "path", r.URL.Path), "request failed", err)
		writeError(w, status, CodeInternal, "internal server error")
		return
	}

	code := errutil.Code(err)
	msg := err.Error()
	if errors.Is(err, auth.ErrInvalidCredentials) {
		code, msg = auth.CodeInvalidCredentials, auth.InvalidCredentialsMessage
	}
	writeError(w, status, code, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, librarian.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, librarian.ErrEmailTaken):
		return http.StatusConflict
	}

	code := errutil.Code(err)
	switch {
	case code == CodeRequestInvalid,
		code == "LIBRARIAN_PASSWORD_MISMATCH",
		strings.HasPrefix(code, "LIBRARIAN_INVALID_"):
		return http.StatusBadRequest
	case code == CodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
