package sqlite

import (
	"context"
	"github.com/myrjola/dfircase/internal/errors"
	"log/slog"
	"time"
)

// Optimize runs PRAGMA optimize once. See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) Optimize(ctx context.Context) error {
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		return errors.Wrap(err, "optimize database")
	}
	return nil
}

// RunOptimizer optimizes the database once per interval until ctx is cancelled. Failures are logged and do not
// stop the loop.
func (db *Database) RunOptimizer(ctx context.Context, interval time.Duration) error {
	for {
		start := time.Now()
		if err := db.Optimize(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database", errors.SlogError(err))
		} else {
			db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database",
				slog.Duration("duration", time.Since(start)))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
			continue
		}
	}
}
