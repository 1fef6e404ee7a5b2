// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// withLogger returns a context carrying logger.
func withLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// loggerFrom returns the request-scoped logger, or fallback when none is set.
func loggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}

	return fallback
}
