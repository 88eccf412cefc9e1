package main

import (
	"context"
	"github.com/joho/godotenv"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/logging"
	"github.com/myrjola/dfircase/internal/pprofserver"
	"github.com/myrjola/dfircase/internal/workspace"
	"golang.org/x/sync/errgroup"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type application struct {
	logger        *slog.Logger
	ws            *workspace.Workspace
	exportTimeout time.Duration
}

const optimizeInterval = time.Hour

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) (err error) {
	cfg, err := workspace.LoadConfig(lookupEnv)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if cfg.PprofAddr != "" {
		pprofserver.Launch(ctx, cfg.PprofAddr, logger)
	}

	var ws *workspace.Workspace
	if ws, err = workspace.Open(ctx, cfg, logger); err != nil {
		return errors.Wrap(err, "open workspace")
	}
	defer func() {
		err = errors.Join(err, ws.Close())
	}()

	app := application{
		logger: logger,
		ws:     ws,
		// AI exports wait for the summarization service.
		exportTimeout: cfg.AI.Timeout + defaultTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.configureAndStartServer(gctx, cfg.Addr)
	})
	g.Go(func() error {
		return ws.DB.RunOptimizer(gctx, optimizeInterval)
	})
	if err = g.Wait(); err != nil {
		return errors.Wrap(err, "run")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelWarn, "failed to load .env", errors.SlogError(err))
	}

	err := run(ctx, logger, os.LookupEnv)
	stop()
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
