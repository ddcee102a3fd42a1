// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

//go:build integration

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/lahmamsi/librarymanagement/internal/store"
	"github.com/lahmamsi/librarymanagement/internal/store/storetest"
)

var _ = Describe("Migrator", Ordered, func() {
	var (
		ctx      context.Context
		pg       *storetest.Postgres
		migrator *store.Migrator
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		pg, err = storetest.StartPostgres(ctx)
		Expect(err).NotTo(HaveOccurred())

		migrator, err = store.NewMigrator(pg.URL, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if migrator != nil {
			Expect(migrator.Close()).To(Succeed())
		}
		if pg != nil {
			_ = pg.Terminate(ctx)
		}
	})

	It("starts at version zero", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("applies, steps, and rolls back every migration", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed(), "second Up is a no-op")

		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Pending).To(BeEmpty())
		latest := status.Version
		Expect(latest).To(BeNumerically(">", 0))

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(latest - 1))

		Expect(migrator.Steps(1)).To(Succeed())
		Expect(migrator.Down()).To(Succeed())

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("connects with retry and enforces unique emails case-insensitively", func() {
		Expect(migrator.Up()).To(Succeed())

		pool, err := store.Connect(ctx, store.PoolConfig{URL: pg.URL, MaxConns: 2}, nil)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		Expect(store.Ping(ctx, pool)).To(Succeed())

		insert := `INSERT INTO librarians (first_name, last_name, email, password_hash) VALUES ($1, $2, $3, $4)`
		_, err = pool.Exec(ctx, insert, "Ada", "Lovelace", "ada@lib.org", "h")
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, insert, "Ada", "Lovelace", "ADA@lib.org", "h")
		Expect(err).To(HaveOccurred())
	})
})
