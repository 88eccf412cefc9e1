package main

import (
	"bytes"
	"context"
	"github.com/myrjola/dfircase/internal/e2etest"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/logging"
	"log/slog"
	"os"
	"time"
)

// TestCaseFlow opens a case, adds a task, and checks that the exported report lists it.
func TestCaseFlow(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return errors.Wrap(err, "wait for ready")
	}
	c, err := client.CreateCase(ctx, "SMOKE-"+time.Now().UTC().Format("20060102T150405"), "smoketest")
	if err != nil {
		return err
	}
	if _, err = client.AddTask(ctx, c.ID, "Verify deployment"); err != nil {
		return err
	}
	report, err := client.Export(ctx, c.ID, "txt")
	if err != nil {
		return err
	}
	if !bytes.Contains(report, []byte("- [ ] Verify deployment")) {
		return errors.New("exported report misses the task", slog.String("id", c.ID))
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only the base URL to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <base-url>")
		os.Exit(1)
	}

	url := os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("url", url))

	if err := TestCaseFlow(ctx, e2etest.NewClient(url)); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing case flow", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
