// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

// Package errutil holds error helpers shared across tasklist packages.
package errutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// Code returns the oops code attached to err, or "" when there is none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := oopsErr.Code()
	if code == nil {
		return ""
	}
	return fmt.Sprint(code)
}

// LogError logs err at error level. Oops errors contribute their code and
// context as structured attributes; extra attrs are appended as given.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	LogErrorContext(context.Background(), logger, msg, err, attrs...)
}

// LogErrorContext is LogError with a context, so trace correlation applies.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	fields := []any{"error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := Code(err); code != "" {
			fields = append(fields, "code", code)
		}
		if c := oopsErr.Context(); len(c) > 0 {
			fields = append(fields, "context", c)
		}
	}
	fields = append(fields, attrs...)
	logger.ErrorContext(ctx, msg, fields...)
}
