// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package errutil

import (
	"errors"
	"strings"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level input failures.
// The zero value is ready to use.
type ValidationError struct {
	Fields []FieldError
}

// Add records a failure for field.
func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

// Err returns v as an error, or nil when no field failed.
func (v *ValidationError) Err() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	if len(v.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrValidation.
func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid returns a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// ValidationFields extracts field failures from err, if it wraps a ValidationError.
func ValidationFields(err error) ([]FieldError, bool) {
	var v *ValidationError
	if !errors.As(err, &v) {
		return nil, false
	}
	return v.Fields, true
}
