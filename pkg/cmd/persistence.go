// Package cmd provides common initialization for the command-line
// binaries: persistence, event bus and the action registry.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/persistence/file"
	"github.com/loomline/loomline/pkg/persistence/postgresql"
)

// NewPersistence selects the storage implementation from the URL scheme:
// postgres:// connects to PostgreSQL, anything else is treated as a file
// persistence root directory.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	scheme, _, found := strings.Cut(databaseURL, "://")

	if found && (scheme == "postgres" || scheme == "postgresql") {
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to open PostgreSQL persistence: %w", err))
		}

		return store
	}

	root := strings.TrimPrefix(databaseURL, "file://")

	return file.NewPersistence(root)
}
