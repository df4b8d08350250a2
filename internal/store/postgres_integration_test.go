// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tasklist/tasklist/internal/store"
)

var _ = Describe("PostgreSQL backend", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("tasklist_test"),
			postgres.WithUsername("tasklist"),
			postgres.WithPassword("tasklist"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("connects with retries", func() {
		pool, err := store.OpenPostgres(ctx, connStr, store.ConnectOptions{MaxConns: 2, Retries: 3})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()
		Expect(pool.Ping(ctx)).To(Succeed())
	})

	It("applies and rolls back migrations", func() {
		m, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = m.Close() }()

		Expect(m.Up()).To(Succeed())
		version, dirty, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())

		Expect(m.Steps(-1)).To(Succeed())
		pending, err := m.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(Equal([]uint{2}))

		Expect(m.Up()).To(Succeed())
	})
})
