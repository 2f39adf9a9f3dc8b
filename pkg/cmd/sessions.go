// Package cmd provides common initialization functions for the command-line
// entrypoint.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tailorbase/storesmith/pkg/sessions"
	"github.com/tailorbase/storesmith/pkg/sessions/file"
	"github.com/tailorbase/storesmith/pkg/sessions/postgres"
	"github.com/tailorbase/storesmith/pkg/sessions/redis"
)

// NewSessionStore creates the session store matching the URL scheme.
// Unknown schemes fall back to file-based storage.
func NewSessionStore(ctx context.Context, logger *slog.Logger, storeURL string) (sessions.Store, error) {
	switch parseStoreScheme(storeURL) {
	case "redis":
		return redis.NewStore(ctx, storeURL)
	case "postgres", "postgresql":
		return postgres.NewStore(ctx, logger, storeURL)
	default:
		return file.NewStore(storeURL), nil
	}
}

func parseStoreScheme(storeURL string) string {
	parts := strings.Split(storeURL, "://")
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}
