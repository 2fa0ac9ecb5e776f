// Package transcriptstore picks the transcript driver for folio commands.
package transcriptstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/transcript"
	"github.com/frantai/folio/pkg/transcript/inmemory"
	"github.com/frantai/folio/pkg/transcript/postgres"
	"github.com/frantai/folio/pkg/transcript/sqlite"
)

// ErrNoStore is returned by ResolveSQLitePath when no database can be found.
var ErrNoStore = errors.New("could not find a folio transcript database; pass --sqlite or --postgres")

// Options selects a transcript driver. PostgresDSN wins over SQLitePath.
type Options struct {
	SQLitePath  string
	PostgresDSN string
}

// Open returns the configured driver, or an in-memory driver when neither
// option is set.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (transcript.Driver, error) {
	switch {
	case opts.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL transcript store: %w", err)
		}
		logger.Info("using PostgreSQL transcript storage")
		return driver, nil

	case opts.SQLitePath != "":
		driver, err := sqlite.NewDriver(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite transcript store: %w", err)
		}
		logger.Info("using SQLite transcript storage", zap.String("path", opts.SQLitePath))
		return driver, nil
	}

	logger.Info("using in-memory transcript storage")
	return inmemory.NewDriver(), nil
}

// OpenExisting opens the configured store, falling back to the first
// SQLite database found by ResolveSQLitePath. It never opens an in-memory
// store since that would always be empty.
func OpenExisting(ctx context.Context, opts Options, logger *zap.Logger) (transcript.Driver, error) {
	if opts.PostgresDSN == "" {
		path, err := ResolveSQLitePath(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		opts.SQLitePath = path
	}
	return Open(ctx, opts, logger)
}

// ResolveSQLitePath returns override when set, then FOLIO_SQLITE, then the
// first existing well-known database file.
func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("FOLIO_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrNoStore
}

func sqliteCandidates() []string {
	candidates := []string{
		"folio.db",
		filepath.Join(".folio", "folio.db"),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append([]string{
			filepath.Join(home, ".folio", "folio.db"),
		}, candidates...)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "folio", "folio.db"),
		}, candidates...)
	}

	return candidates
}
