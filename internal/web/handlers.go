// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token     string        `json:"token"`
	TokenType string        `json:"tokenType"`
	ExpiresIn int64         `json:"expiresIn"`
	Librarian librarian.DTO `json:"librarian"`
}

// ValidateRequest is the body of POST /api/auth/validate.
type ValidateRequest struct {
	Token string `json:"token"`
}

// ValidateResponse reports whether a token is still good.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Email string `json:"email,omitempty"`
	Error string `json:"error,omitempty"`
}

// ChangePasswordRequest is the body of PUT /api/librarians/{id}/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	principal, err := a.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	token, err := a.auth.IssueToken(r.Context(), principal)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	l, err := a.librarians.Get(r.Context(), principal.ID)
	if err != nil {
		// Deleted between authentication and now.
		if errors.Is(err, librarian.ErrNotFound) {
			err = oops.Code(auth.CodeInvalidCredentials).Wrap(auth.ErrInvalidCredentials)
		}
		renderError(w, r, a.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token.Value,
		TokenType: "Bearer",
		ExpiresIn: token.ExpiresIn(a.now()),
		Librarian: librarian.ToDTO(l),
	})
}

func (a *api) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	claims, err := a.auth.ValidateToken(r.Context(), req.Token)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidToken) {
			renderError(w, r, a.logger, err)
			return
		}
		writeJSON(w, http.StatusUnauthorized, ValidateResponse{Valid: false, Error: auth.ErrInvalidToken.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{Valid: true, Email: claims.Subject})
}

func (a *api) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, auth.CodeTokenInvalid, "authentication required")
		return
	}

	l, err := a.librarians.Get(r.Context(), principal.ID)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, librarian.ToDTO(l))
}

func (a *api) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	ls, err := a.librarians.List(r.Context(), limit, offset)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, librarian.ToDTOs(ls))
}

func (a *api) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	l, err := a.librarians.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, librarian.ToDTO(l))
}

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in librarian.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	l, err := a.librarians.Register(r.Context(), in)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	w.Header().Set("Location", "/api/librarians/"+strconv.FormatUint(l.ID, 10))
	writeJSON(w, http.StatusCreated, librarian.ToDTO(l))
}

func (a *api) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	var d librarian.DTO
	if err := decodeJSON(w, r, &d); err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	l, err := a.librarians.Update(r.Context(), id, d)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, librarian.ToDTO(l))
}

func (a *api) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	if err := a.librarians.Delete(r.Context(), id); err != nil {
		renderError(w, r, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChangePassword lets a librarian change only their own password.
func (a *api) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok || principal.ID != id {
		writeError(w, http.StatusForbidden, CodeForbidden, "librarians may only change their own password")
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, a.logger, err)
		return
	}

	if err := a.librarians.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		renderError(w, r, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, oops.Code(CodeRequestInvalid).With("id", raw).Errorf("invalid librarian id %q", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, oops.Code(CodeRequestInvalid).With(name, raw).Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}
