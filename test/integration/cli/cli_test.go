// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

//go:build integration

package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("CLI against PostgreSQL", Ordered, func() {
	var ctx context.Context

	BeforeAll(func() {
		ctx = context.Background()
	})

	It("applies migrations", func() {
		out, err := tasklist(ctx, "migrate", "up")
		Expect(err).NotTo(HaveOccurred(), "migrate up failed: %s", out)
		Expect(out).To(ContainSubstring("Applied 2 migration(s)"))

		out, err = tasklist(ctx, "migrate", "status")
		Expect(err).NotTo(HaveOccurred(), "migrate status failed: %s", out)
		Expect(out).To(ContainSubstring("Dialect: postgres"))
		Expect(out).To(ContainSubstring("Pending: 0"))
	})

	It("seeds users once", func() {
		file := filepath.Join(GinkgoT().TempDir(), "users.yaml")
		Expect(os.WriteFile(file, []byte(strings.TrimSpace(`
users:
  - username: alice
    email: alice@example.com
    password: secret1
  - username: admin
    email: admin@example.com
    role: admin
    password: secret2
`)), 0o600)).To(Succeed())

		out, err := tasklist(ctx, "seed", "--file", file)
		Expect(err).NotTo(HaveOccurred(), "seed failed: %s", out)
		Expect(out).To(ContainSubstring("Seed complete: 2 created, 0 skipped"))

		var role string
		Expect(env.pool.QueryRow(ctx, "SELECT role FROM users WHERE username = 'admin'").Scan(&role)).To(Succeed())
		Expect(role).To(Equal("admin"))

		out, err = tasklist(ctx, "seed", "--file", file)
		Expect(err).NotTo(HaveOccurred(), "second seed failed: %s", out)
		Expect(out).To(ContainSubstring("Seed complete: 0 created, 2 skipped"))
	})

	It("rolls back with migrate down", func() {
		out, err := tasklist(ctx, "migrate", "down", "--all")
		Expect(err).NotTo(HaveOccurred(), "migrate down failed: %s", out)

		var exists bool
		Expect(env.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'users')").Scan(&exists)).To(Succeed())
		Expect(exists).To(BeFalse())
	})
})
