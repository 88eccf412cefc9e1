// Package cliutil holds helpers shared by the dfircase command groups.
package cliutil

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/workspace"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"strings"
)

// ErrCaseNotFound is returned by commands addressing an unknown case.
var ErrCaseNotFound = errors.NewSentinel("case not found")

type workspaceKey struct{}

func WithWorkspace(ctx context.Context, ws *workspace.Workspace) context.Context {
	return context.WithValue(ctx, workspaceKey{}, ws)
}

// Workspace returns the workspace opened for the running command.
func Workspace(cmd *cobra.Command) *workspace.Workspace {
	ws, ok := cmd.Context().Value(workspaceKey{}).(*workspace.Workspace)
	if !ok {
		panic("workspace not opened for command " + cmd.CommandPath())
	}
	return ws
}

// PrintJSON writes v as indented JSON to the command output.
func PrintJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return errors.Wrap(err, "write output")
}

// Saved reports the outcome of a case edit. Edits of missing cases yield no case.
func Saved(cmd *cobra.Command, id string, c *models.Case, err error) error {
	if err != nil {
		return err
	}
	if c == nil {
		return errors.Wrap(ErrCaseNotFound, "edit case", slog.String("id", id))
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "case %s (%s) saved\n", c.CaseID, c.ID)
	return errors.Wrap(err, "write output")
}

// Text returns arg, or the command input when arg is "-".
func Text(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
