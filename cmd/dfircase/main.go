package main

import (
	"context"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/myrjola/dfircase/cmd/dfircase/cases"
	"github.com/myrjola/dfircase/cmd/dfircase/cliutil"
	"github.com/myrjola/dfircase/cmd/dfircase/notebook"
	"github.com/myrjola/dfircase/cmd/dfircase/reports"
	"github.com/myrjola/dfircase/cmd/dfircase/steps"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/logging"
	"github.com/myrjola/dfircase/internal/workspace"
	"github.com/spf13/cobra"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// run executes the command line args. The workspace is opened before any command runs and closed afterwards.
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout, stderr io.Writer,
	lookupEnv func(string) (string, bool),
) error {
	var (
		ws      *workspace.Workspace
		verbose bool
	)
	rootCmd := &cobra.Command{
		Use:           "dfircase",
		Long:          `Case management for digital forensics and incident response investigations`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{ //nolint:exhaustruct // defaults are fine
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				AddSource:   false,
				Level:       level,
				ReplaceAttr: nil,
			})))
			cfg, err := workspace.LoadConfig(lookupEnv)
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			if ws, err = workspace.Open(cmd.Context(), cfg, logger); err != nil {
				return errors.Wrap(err, "open workspace")
			}
			cmd.SetContext(cliutil.WithWorkspace(cmd.Context(), ws))
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")

	rootCmd.AddGroup(cases.Group, notebook.Group, reports.Group, steps.Group)
	rootCmd.AddCommand(cases.Commands()...)
	rootCmd.AddCommand(notebook.Commands()...)
	rootCmd.AddCommand(reports.Commands()...)
	rootCmd.AddCommand(steps.Commands()...)

	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	if ws != nil {
		err = errors.Join(err, ws.Close())
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
	}
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.LookupEnv)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
