package main

import (
	"context"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/repositories"
	"github.com/myrjola/dfircase/internal/sqlite"
	"github.com/myrjola/dfircase/internal/testhelpers"
	"log/slog"
	"os"
	"time"
)

// main opens the database at DFIRCASE_SQLITE_URL, which migrates the schema, and counts the stored cases.
func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("DFIRCASE_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "DFIRCASE_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// Reading every stored document verifies that the migrated schema still decodes.
	cases := repositories.NewCaseRepository(db, logger)
	var count int
	if count, err = cases.Count(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error counting cases", errors.SlogError(err))
		os.Exit(1)
	}
	listed, err := cases.List(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error decoding cases", errors.SlogError(err))
		os.Exit(1)
	}
	if len(listed) != count {
		logger.LogAttrs(ctx, slog.LevelError, "decoded case count differs",
			slog.Int("count", count), slog.Int("decoded", len(listed)))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "case count", slog.Int("count", count))

	if err = db.Close(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
