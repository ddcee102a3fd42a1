// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

//go:build integration

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
	"github.com/lahmamsi/librarymanagement/internal/librarian/postgres"
	"github.com/lahmamsi/librarymanagement/internal/observability"
	"github.com/lahmamsi/librarymanagement/internal/store"
	"github.com/lahmamsi/librarymanagement/internal/store/storetest"
	"github.com/lahmamsi/librarymanagement/internal/web"
)

var _ = Describe("HTTP API against PostgreSQL", Ordered, func() {
	var (
		ctx     context.Context
		pg      *storetest.Postgres
		pool    *pgxpool.Pool
		server  *httptest.Server
		metrics *observability.Metrics
	)

	BeforeAll(func() {
		ctx = context.Background()
		logger := slog.New(slog.DiscardHandler)

		var err error
		pg, err = storetest.StartPostgres(ctx)
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(pg.URL, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, store.PoolConfig{URL: pg.URL}, logger)
		Expect(err).NotTo(HaveOccurred())

		hasher, err := auth.NewHasher(auth.HasherBcrypt, bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		repo := postgres.NewLibrarianRepository(pool)
		librarians, err := librarian.NewService(repo, hasher, logger)
		Expect(err).NotTo(HaveOccurred())

		tokens, err := auth.NewTokenManager(auth.TokenConfig{Secret: []byte("integration-secret-0123456789abcdef")})
		Expect(err).NotTo(HaveOccurred())

		metrics = observability.NewMetrics(prometheus.NewRegistry())
		authn, err := auth.NewService(librarian.NewCredentialLookup(repo), hasher,
			auth.WithLogger(logger),
			auth.WithTokenManager(tokens),
			auth.WithPasswordUpgrader(librarians),
			auth.WithAttemptRecorder(metrics),
			auth.WithThrottle(auth.NewThrottle(auth.ThrottleConfig{Threshold: 3})),
		)
		Expect(err).NotTo(HaveOccurred())

		handler, err := web.NewHandler(web.Options{
			Auth:             authn.Manager(),
			Librarians:       librarians,
			Metrics:          metrics,
			Logger:           logger,
			OpenRegistration: true,
		})
		Expect(err).NotTo(HaveOccurred())
		server = httptest.NewServer(handler)
	})

	AfterAll(func() {
		if server != nil {
			server.Close()
		}
		if pool != nil {
			pool.Close()
		}
		if pg != nil {
			_ = pg.Terminate(ctx)
		}
	})

	call := func(method, path, token string, body any) (int, []byte) {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, server.URL+path, reader)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := server.Client().Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		out, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, out
	}

	var token string

	It("registers a librarian", func() {
		status, body := call(http.MethodPost, "/api/librarians", "", librarian.RegisterInput{
			FirstName: "Ada", LastName: "Lovelace", Email: "Ada@Lib.org", Password: "analytical-engine",
		})
		Expect(status).To(Equal(http.StatusCreated), string(body))

		var dto librarian.DTO
		Expect(json.Unmarshal(body, &dto)).To(Succeed())
		Expect(dto.Email).To(Equal("ada@lib.org"))
	})

	It("logs in with a differently cased email", func() {
		status, body := call(http.MethodPost, "/api/auth/login", "", web.LoginRequest{
			Email: "ADA@LIB.ORG", Password: "analytical-engine",
		})
		Expect(status).To(Equal(http.StatusOK), string(body))

		var resp web.LoginResponse
		Expect(json.Unmarshal(body, &resp)).To(Succeed())
		Expect(resp.Token).NotTo(BeEmpty())
		token = resp.Token
	})

	It("returns the same rejection for unknown users and wrong passwords", func() {
		wrongStatus, wrongBody := call(http.MethodPost, "/api/auth/login", "", web.LoginRequest{
			Email: "ada@lib.org", Password: "difference-engine",
		})
		unknownStatus, unknownBody := call(http.MethodPost, "/api/auth/login", "", web.LoginRequest{
			Email: "charles@lib.org", Password: "difference-engine",
		})
		Expect(wrongStatus).To(Equal(http.StatusUnauthorized))
		Expect(unknownStatus).To(Equal(http.StatusUnauthorized))
		Expect(wrongBody).To(Equal(unknownBody))
	})

	It("serves the authenticated profile", func() {
		status, body := call(http.MethodGet, "/api/librarians/me", token, nil)
		Expect(status).To(Equal(http.StatusOK), string(body))
		Expect(string(body)).NotTo(ContainSubstring("password"))
	})

	It("locks out after repeated failures without revealing it", func() {
		for range 3 {
			status, _ := call(http.MethodPost, "/api/auth/login", "", web.LoginRequest{
				Email: "ada@lib.org", Password: "wrong-password",
			})
			Expect(status).To(Equal(http.StatusUnauthorized))
		}

		status, body := call(http.MethodPost, "/api/auth/login", "", web.LoginRequest{
			Email: "ada@lib.org", Password: "analytical-engine",
		})
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(string(body)).To(ContainSubstring(auth.InvalidCredentialsMessage))
		Expect(testutil.ToFloat64(metrics.AuthAttempts.WithLabelValues(string(auth.ResultLocked)))).To(BeNumerically(">=", 1))
	})
})
