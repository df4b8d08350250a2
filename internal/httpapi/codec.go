// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
)

var (
	errMalformedBody = errors.New("malformed request body")
	errBodyTooLarge  = errors.New("request body too large")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readBody reads at most maxBytes from the request.
func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil {
		return nil, oops.Code("REQUEST_MALFORMED").Wrap(errMalformedBody)
	}
	defer func() { _ = r.Body.Close() }()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, oops.Code("REQUEST_TOO_LARGE").With("limit", maxBytes).Wrap(errBodyTooLarge)
		}
		return nil, oops.Code("REQUEST_MALFORMED").Wrap(errMalformedBody)
	}
	return data, nil
}

// decodeJSON reads a JSON body, validates it against the named request
// schema and decodes it into dst.
func (a *API) decodeJSON(w http.ResponseWriter, r *http.Request, schema string, dst any) error {
	data, err := readBody(w, r, a.maxBody)
	if err != nil {
		return err
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return oops.Code("REQUEST_MALFORMED").With("reason", err.Error()).Wrap(errMalformedBody)
	}
	if err := a.schemas.validate(schema, doc); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return oops.Code("REQUEST_MALFORMED").With("reason", err.Error()).Wrap(errMalformedBody)
	}
	return nil
}
