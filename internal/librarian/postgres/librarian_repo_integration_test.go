// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
	"github.com/lahmamsi/librarymanagement/internal/librarian/postgres"
	"github.com/lahmamsi/librarymanagement/internal/store"
	"github.com/lahmamsi/librarymanagement/internal/store/storetest"
)

var _ = Describe("LibrarianRepository", Ordered, func() {
	var (
		ctx  context.Context
		pg   *storetest.Postgres
		pool *pgxpool.Pool
		repo *postgres.LibrarianRepository
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		pg, err = storetest.StartPostgres(ctx)
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(pg.URL, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, store.PoolConfig{URL: pg.URL}, nil)
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewLibrarianRepository(pool)
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if pg != nil {
			_ = pg.Terminate(ctx)
		}
	})

	BeforeEach(func() {
		_, err := pool.Exec(ctx, `TRUNCATE librarians RESTART IDENTITY`)
		Expect(err).NotTo(HaveOccurred())
	})

	newLibrarian := func(email string) *librarian.Librarian {
		now := time.Now().UTC().Truncate(time.Microsecond)
		return &librarian.Librarian{
			FirstName:    "Ada",
			LastName:     "Lovelace",
			Email:        email,
			PhoneNumber:  "555-0100",
			PasswordHash: "hash",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	It("creates and reads back a librarian", func() {
		l := newLibrarian("ada@lib.org")
		Expect(repo.Create(ctx, l)).To(Succeed())
		Expect(l.ID).To(Equal(uint64(1)))

		got, err := repo.GetByID(ctx, l.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Email).To(Equal("ada@lib.org"))
		Expect(got.CreatedAt).To(BeTemporally("~", l.CreatedAt, time.Millisecond))

		got, err = repo.GetByEmail(ctx, "ADA@LIB.ORG")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(l.ID))
	})

	It("rejects a duplicate email regardless of case", func() {
		Expect(repo.Create(ctx, newLibrarian("ada@lib.org"))).To(Succeed())

		err := repo.Create(ctx, newLibrarian("Ada@Lib.org"))
		Expect(errors.Is(err, librarian.ErrEmailTaken)).To(BeTrue())
	})

	It("reports missing rows as not found", func() {
		_, err := repo.GetByID(ctx, 42)
		Expect(errors.Is(err, librarian.ErrNotFound)).To(BeTrue())

		_, err = repo.GetByEmail(ctx, "nobody@lib.org")
		Expect(errors.Is(err, librarian.ErrNotFound)).To(BeTrue())

		Expect(errors.Is(repo.Delete(ctx, 42), librarian.ErrNotFound)).To(BeTrue())
		Expect(errors.Is(repo.UpdatePassword(ctx, 42, "h"), librarian.ErrNotFound)).To(BeTrue())
	})

	It("lists, updates, and deletes", func() {
		for _, email := range []string{"a@lib.org", "b@lib.org", "c@lib.org"} {
			Expect(repo.Create(ctx, newLibrarian(email))).To(Succeed())
		}

		page, err := repo.List(ctx, 2, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(page).To(HaveLen(2))
		Expect(page[0].Email).To(Equal("b@lib.org"))

		l := page[0]
		l.FirstName = "Barbara"
		l.UpdatedAt = time.Now().UTC()
		Expect(repo.Update(ctx, l)).To(Succeed())

		l.Email = "c@lib.org"
		Expect(errors.Is(repo.Update(ctx, l), librarian.ErrEmailTaken)).To(BeTrue())

		Expect(repo.Delete(ctx, l.ID)).To(Succeed())
		rest, err := repo.List(ctx, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(rest).To(HaveLen(2))
	})

	It("authenticates against stored credentials", func() {
		hasher, err := auth.NewHasher(auth.HasherBcrypt, bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())

		svc, err := librarian.NewService(repo, hasher, nil)
		Expect(err).NotTo(HaveOccurred())
		registered, err := svc.Register(ctx, librarian.RegisterInput{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@lib.org",
			Password:  "correct horse",
		})
		Expect(err).NotTo(HaveOccurred())

		authn, err := auth.NewService(librarian.NewCredentialLookup(repo), hasher)
		Expect(err).NotTo(HaveOccurred())

		principal, err := authn.Authenticate(ctx, "Ada@Lib.org", "correct horse")
		Expect(err).NotTo(HaveOccurred())
		Expect(principal.ID).To(Equal(registered.ID))

		_, err = authn.Authenticate(ctx, "ada@lib.org", "wrong horse")
		Expect(errors.Is(err, auth.ErrInvalidCredentials)).To(BeTrue())

		_, err = authn.Authenticate(ctx, "ghost@lib.org", "correct horse")
		Expect(errors.Is(err, auth.ErrInvalidCredentials)).To(BeTrue())
	})
})
