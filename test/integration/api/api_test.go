// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

//go:build integration

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

type todoBody struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	OwnerID     int64  `json:"owner_id"`
}

func call(method, path, token string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(env.ctx, method, env.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := env.server.Client().Do(req)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(resp.Body.Close)
	return resp
}

func decode(resp *http.Response, v any) {
	Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
}

func register(username, password string) {
	resp := call(http.MethodPost, "/auth/", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	Expect(resp.StatusCode).To(Equal(http.StatusCreated))
}

func login(username, password string) *http.Response {
	resp, err := env.server.Client().PostForm(env.server.URL+"/auth/token",
		url.Values{"username": {username}, "password": {password}})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(resp.Body.Close)
	return resp
}

func token(username, password string) string {
	resp := login(username, password)
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decode(resp, &body)
	Expect(body.AccessToken).NotTo(BeEmpty())
	return body.AccessToken
}

var _ = Describe("Todo API on PostgreSQL", func() {
	BeforeEach(func() {
		cleanupDatabase(env.ctx, env.pool)
	})

	Describe("accounts", func() {
		It("registers, logs in and reports the current user", func() {
			register("alice", "secret1")
			tok := token("alice", "secret1")

			resp := call(http.MethodGet, "/users/", tok, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var user map[string]any
			decode(resp, &user)
			Expect(user).To(HaveKeyWithValue("username", "alice"))
			Expect(user).To(HaveKeyWithValue("is_active", true))
			Expect(user).NotTo(HaveKey("hashed_password"))
		})

		It("rejects a duplicate username with a conflict", func() {
			register("alice", "secret1")
			resp := call(http.MethodPost, "/auth/", "", map[string]any{
				"username": "alice",
				"email":    "other@example.com",
				"password": "secret2",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("gives the same failure for unknown users and wrong passwords", func() {
			register("alice", "secret1")

			wrong := login("alice", "nope-nope")
			unknown := login("mallory", "secret1")
			Expect(wrong.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(unknown.StatusCode).To(Equal(http.StatusUnauthorized))

			wrongBody, _ := io.ReadAll(wrong.Body)
			unknownBody, _ := io.ReadAll(unknown.Body)
			Expect(wrongBody).To(MatchJSON(unknownBody))
		})

		It("changes the password", func() {
			register("alice", "secret1")
			tok := token("alice", "secret1")

			resp := call(http.MethodPut, "/users/", tok, map[string]any{
				"password":     "secret1",
				"new_password": "secret2",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			Expect(login("alice", "secret1").StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(login("alice", "secret2").StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("todos", func() {
		var aliceTok, bobTok string

		BeforeEach(func() {
			register("alice", "secret1")
			register("bob", "secret2")
			aliceTok = token("alice", "secret1")
			bobTok = token("bob", "secret2")
		})

		It("runs the full lifecycle", func() {
			resp := call(http.MethodPost, "/todos/", aliceTok, map[string]any{
				"title":       "buy milk",
				"description": "2 liters",
				"priority":    3,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created todoBody
			decode(resp, &created)
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(created.Completed).To(BeFalse())
			path := fmt.Sprintf("/todos/%d", created.ID)
			Expect(resp.Header.Get("Location")).To(Equal(path))

			resp = call(http.MethodPut, path, aliceTok, map[string]any{
				"title":       "buy oat milk",
				"description": "1 liter",
				"priority":    5,
				"completed":   true,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = call(http.MethodGet, path, aliceTok, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var got todoBody
			decode(resp, &got)
			Expect(got.Title).To(Equal("buy oat milk"))
			Expect(got.Priority).To(Equal(5))
			Expect(got.Completed).To(BeTrue())
			Expect(got.OwnerID).To(Equal(created.OwnerID))

			resp = call(http.MethodDelete, path, aliceTok, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = call(http.MethodGet, path, aliceTok, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("hides other users' todos", func() {
			resp := call(http.MethodPost, "/todos/", aliceTok, map[string]any{
				"title": "secret plan", "description": "none", "priority": 1,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created todoBody
			decode(resp, &created)
			path := fmt.Sprintf("/todos/%d", created.ID)

			Expect(call(http.MethodGet, path, bobTok, nil).StatusCode).To(Equal(http.StatusNotFound))
			Expect(call(http.MethodPut, path, bobTok, map[string]any{
				"title": "hijacked", "description": "none", "priority": 1,
			}).StatusCode).To(Equal(http.StatusNotFound))
			Expect(call(http.MethodDelete, path, bobTok, nil).StatusCode).To(Equal(http.StatusNotFound))

			resp = call(http.MethodGet, "/todos/", bobTok, nil)
			var list []todoBody
			decode(resp, &list)
			Expect(list).To(BeEmpty())

			resp = call(http.MethodGet, path, aliceTok, nil)
			var got todoBody
			decode(resp, &got)
			Expect(got.Title).To(Equal("secret plan"))
		})

		It("lists only the caller's todos in insertion order", func() {
			for i, title := range []string{"one", "two", "three"} {
				resp := call(http.MethodPost, "/todos/", aliceTok, map[string]any{
					"title": title, "description": "none", "priority": i + 1,
				})
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			}
			call(http.MethodPost, "/todos/", bobTok, map[string]any{
				"title": "bob's", "description": "none", "priority": 1,
			})

			resp := call(http.MethodGet, "/todos/", aliceTok, nil)
			var list []todoBody
			decode(resp, &list)
			titles := make([]string, 0, len(list))
			for _, td := range list {
				titles = append(titles, td.Title)
			}
			Expect(titles).To(Equal([]string{"one", "two", "three"}))
		})

		It("rejects out-of-range priorities", func() {
			resp := call(http.MethodPost, "/todos/", aliceTok, map[string]any{
				"title": "x", "description": "none", "priority": 6,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			body, _ := io.ReadAll(resp.Body)
			Expect(strings.Contains(string(body), "priority")).To(BeTrue())
		})

		It("removes todos when their owner row is deleted", func() {
			call(http.MethodPost, "/todos/", aliceTok, map[string]any{
				"title": "orphan", "description": "none", "priority": 1,
			})
			_, err := env.pool.Exec(env.ctx, "DELETE FROM users WHERE username = 'alice'")
			Expect(err).NotTo(HaveOccurred())

			var count int
			Expect(env.pool.QueryRow(env.ctx, "SELECT count(*) FROM todos").Scan(&count)).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	It("requires a token for protected routes", func() {
		resp := call(http.MethodGet, "/todos/", "", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(resp.Header.Get("WWW-Authenticate")).To(Equal("Bearer"))
	})
})
