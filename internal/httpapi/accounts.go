// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package httpapi

import (
	"errors"
	"math"
	"net/http"

	"github.com/samber/oops"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/pkg/errutil"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
}

// toUserResponse never copies the password hash.
func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decodeJSON(w, r, SchemaRegister, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.accounts.Register(r.Context(), auth.Registration{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	})
	a.metrics.RecordAuth("register", outcome(err))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "username", user.Username)
	w.WriteHeader(http.StatusCreated)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxBody)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.writeError(w, r, oops.Code("REQUEST_TOO_LARGE").Wrap(errBodyTooLarge))
			return
		}
		a.writeError(w, r, oops.Code("REQUEST_MALFORMED").Wrap(errMalformedBody))
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	var v errutil.ValidationError
	if username == "" {
		v.Add("username", "is required")
	}
	if password == "" {
		v.Add("password", "is required")
	}
	if err := v.Err(); err != nil {
		a.writeError(w, r, oops.Code("REQUEST_INVALID").Wrap(err))
		return
	}

	token, err := a.accounts.Login(r.Context(), username, password)
	a.metrics.RecordAuth("login", outcome(err))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	infoFrom(r.Context()).username = username
	expiresIn := int64(math.Round(token.ExpiresAt.Sub(a.now()).Seconds()))

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   auth.TokenType,
		ExpiresIn:   expiresIn,
	})
}

func (a *API) handleCurrentUser(w http.ResponseWriter, r *http.Request, who auth.Identity) {
	user, err := a.accounts.CurrentUser(r.Context(), who)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request, who auth.Identity) {
	var req passwordChangeRequest
	if err := a.decodeJSON(w, r, SchemaPasswordChange, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	err := a.accounts.ChangePassword(r.Context(), who, req.Password, req.NewPassword)
	a.metrics.RecordAuth("password_change", outcome(err))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
