// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

// Package web exposes authentication and librarian management over HTTP.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
)

// LibrarianService is the librarian management surface used by the handlers.
type LibrarianService interface {
	Register(ctx context.Context, in librarian.RegisterInput) (*librarian.Librarian, error)
	Get(ctx context.Context, id uint64) (*librarian.Librarian, error)
	List(ctx context.Context, limit, offset int) ([]*librarian.Librarian, error)
	Update(ctx context.Context, id uint64, d librarian.DTO) (*librarian.Librarian, error)
	ChangePassword(ctx context.Context, id uint64, current, next string) error
	Delete(ctx context.Context, id uint64) error
}

// RequestRecorder counts served requests.
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int)
}

type noopRecorder struct{}

func (noopRecorder) RecordHTTPRequest(string, string, int) {}

// Options configures NewHandler.
type Options struct {
	Auth       auth.AuthenticationManager
	Librarians LibrarianService
	Metrics    RequestRecorder
	Logger     *slog.Logger

	// CORSOrigins enables CORS for the listed origins. Empty disables CORS.
	CORSOrigins []string
	// OpenRegistration lets anyone create a librarian account.
	OpenRegistration bool

	now func() time.Time
}

type api struct {
	auth       auth.AuthenticationManager
	librarians LibrarianService
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler builds the HTTP API.
func NewHandler(opts Options) (http.Handler, error) {
	if opts.Auth == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("authentication manager is required")
	}
	if opts.Librarians == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("librarian service is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopRecorder{}
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	a := &api{
		auth:       opts.Auth,
		librarians: opts.Librarians,
		logger:     opts.Logger,
		now:        opts.now,
	}

	r := mux.NewRouter()
	r.Use(recoverer(opts.Logger), instrument(opts.Logger, opts.Metrics, ""))
	r.NotFoundHandler = instrument(opts.Logger, opts.Metrics, "unmatched")(http.HandlerFunc(notFound))
	r.MethodNotAllowedHandler = instrument(opts.Logger, opts.Metrics, "unmatched")(http.HandlerFunc(methodNotAllowed))

	// One /api subrouter keeps method mismatches visible to the root router.
	apiRouter := r.PathPrefix("/api").Subrouter()
	protect := bearerAuth(opts.Auth)
	guarded := func(fn http.HandlerFunc) http.Handler { return protect(fn) }

	apiRouter.HandleFunc("/auth/login", a.handleLogin).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/validate", a.handleValidate).Methods(http.MethodPost)

	register := guarded(a.handleRegister)
	if opts.OpenRegistration {
		register = http.HandlerFunc(a.handleRegister)
	}
	apiRouter.Handle("/librarians", register).Methods(http.MethodPost)
	apiRouter.Handle("/librarians", guarded(a.handleList)).Methods(http.MethodGet)
	apiRouter.Handle("/librarians/me", guarded(a.handleMe)).Methods(http.MethodGet)
	apiRouter.Handle("/librarians/{id:[0-9]+}", guarded(a.handleGet)).Methods(http.MethodGet)
	apiRouter.Handle("/librarians/{id:[0-9]+}", guarded(a.handleUpdate)).Methods(http.MethodPut)
	apiRouter.Handle("/librarians/{id:[0-9]+}", guarded(a.handleDelete)).Methods(http.MethodDelete)
	apiRouter.Handle("/librarians/{id:[0-9]+}/password", guarded(a.handleChangePassword)).Methods(http.MethodPut)

	var h http.Handler = r
	if len(opts.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         600,
		}).Handler(h)
	}
	return requestID(h), nil
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeRequestInvalid, "method not allowed")
}
