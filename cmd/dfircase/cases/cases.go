package cases

import (
	"fmt"
	"github.com/charmbracelet/glamour"
	"github.com/myrjola/dfircase/cmd/dfircase/cliutil"
	"github.com/myrjola/dfircase/internal/caselist"
	"github.com/myrjola/dfircase/internal/casework"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/myrjola/dfircase/internal/repositories"
	"github.com/myrjola/dfircase/internal/scope"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

var Group = &cobra.Group{
	ID:    "cases",
	Title: "Cases",
}

// Commands returns the case management commands.
func Commands() []*cobra.Command {
	return []*cobra.Command{newCmd(), listCmd(), showCmd(), scopeCmd(), statusCmd(), importLegacyCmd()}
}

func newCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "new [case-id] [analyst]",
		GroupID: Group.ID,
		Short:   "Open a new case",
		Args:    cobra.ExactArgs(2), //nolint:mnd // case id and analyst
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := cliutil.Workspace(cmd)
			c, err := ws.Editor.NewCase(cmd.Context(), casework.NewCaseParams{CaseID: args[0], AnalystName: args[1]})
			if err != nil {
				return err
			}
			if c == nil {
				return errors.New("case id and analyst name are required")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return errors.Wrap(err, "write output")
		},
	}
}

func listCmd() *cobra.Command {
	var (
		filterPairs []string
		sortSpec    string
		facets      bool
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		GroupID: Group.ID,
		Short:   "List cases",
		Long: `Lists stored cases, newest first by default.

Filter with --filter field=value, repeatable. Values of the same field are alternatives.
Sort with --sort field[:asc|desc]. Fields: caseId, analystName, status, scope, createdAt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters, ok := caselist.ParseFilters(filterPairs)
			if !ok {
				return errors.New("invalid filter", slog.Any("filter", filterPairs))
			}
			sort := caselist.DefaultSort()
			if sortSpec != "" {
				if sort, ok = caselist.ParseSort(sortSpec); !ok {
					return errors.New("invalid sort", slog.String("sort", sortSpec))
				}
			}

			all, err := cliutil.Workspace(cmd).Editor.List(cmd.Context())
			if err != nil {
				return err
			}
			if facets {
				return cliutil.PrintJSON(cmd, caselist.Facets(all))
			}
			listed := caselist.Project(all, filters, &sort)
			if asJSON {
				return cliutil.PrintJSON(cmd, listed)
			}
			return printTable(cmd, listed)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&filterPairs, "filter", nil, "keep cases with field=value")
	f.StringVar(&sortSpec, "sort", "", "sort by field[:asc|desc] (default createdAt:desc)")
	f.BoolVar(&facets, "facets", false, "print the distinct values of every filterable field")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printTable(cmd *cobra.Command, listed []models.Case) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding
	_, _ = fmt.Fprintln(w, "ID\tCASE\tANALYST\tSTATUS\tSCOPE\tCREATED")
	for _, c := range listed {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.CaseID, c.AnalystName, c.Status, c.Scope, c.CreatedAt.Local().Format(time.DateTime))
	}
	return errors.Wrap(w.Flush(), "write table")
}

func showCmd() *cobra.Command {
	var (
		raw   bool
		style string
	)
	cmd := &cobra.Command{
		Use:     "show [id]",
		GroupID: Group.ID,
		Short:   "Render the case report in the terminal",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := cliutil.Workspace(cmd)
			content, err := ws.Exporter.Content(cmd.Context(), args[0])
			if errors.Is(err, repositories.ErrNotFound) {
				return errors.Wrap(cliutil.ErrCaseNotFound, "show case", slog.String("id", args[0]))
			}
			if err != nil {
				return err
			}
			if c, getErr := ws.Editor.Get(cmd.Context(), args[0]); getErr == nil {
				progress := scope.CaseProgress(&c, ws.Steps)
				content += fmt.Sprintf("\n---\n_Progress: %d/%d steps (%d%%)_\n",
					progress.Completed, progress.Total, progress.Percent())
			}
			if raw {
				_, err = fmt.Fprint(cmd.OutOrStdout(), content)
				return errors.Wrap(err, "write output")
			}
			renderer, err := glamour.NewTermRenderer(
				glamour.WithStandardStyle(style),
				glamour.WithWordWrap(100), //nolint:mnd // terminal width
			)
			if err != nil {
				return errors.Wrap(err, "create markdown renderer")
			}
			rendered, err := renderer.Render(content)
			if err != nil {
				return errors.Wrap(err, "render report")
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return errors.Wrap(err, "write output")
		},
	}
	f := cmd.Flags()
	f.BoolVar(&raw, "raw", false, "print the Markdown source")
	f.StringVar(&style, "style", "dark", "glamour style: dark, light, notty, ascii")
	return cmd
}

func scopeCmd() *cobra.Command {
	var (
		profiles []string
		keywords string
	)
	names := make([]string, 0, len(scope.Profiles))
	for _, p := range scope.Profiles {
		names = append(names, string(p))
	}
	cmd := &cobra.Command{
		Use:     "scope [id]",
		GroupID: Group.ID,
		Short:   "Select the investigation profiles of a case",
		Long: "Selects investigation profiles, repeatable: " + strings.Join(names, ", ") + `.
With Custom, --keywords narrows the steps to those whose title, description, or tool mentions a keyword.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliutil.Workspace(cmd).Editor.SelectScope(cmd.Context(), args[0], profiles, keywords)
			return cliutil.Saved(cmd, args[0], c, err)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&profiles, "profile", nil, "investigation profile")
	f.StringVar(&keywords, "keywords", "", "comma separated keywords for the Custom profile")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status [id] [Open|Closed]",
		GroupID:   Group.ID,
		Short:     "Open or close a case",
		Args:      cobra.ExactArgs(2), //nolint:mnd // id and status
		ValidArgs: []string{string(models.StatusOpen), string(models.StatusClosed)},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliutil.Workspace(cmd).Editor.SetStatus(cmd.Context(), args[0], models.Status(args[1]))
			return cliutil.Saved(cmd, args[0], c, err)
		},
	}
}

func importLegacyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "import-legacy [file]",
		GroupID: Group.ID,
		Short:   "Import a JSON case list written by earlier releases",
		Long:    "Imports a JSON case list. Cases with an existing id are overwritten. Use - to read standard input.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				var text string
				text, err = cliutil.Text(cmd, "-")
				data = []byte(text)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return errors.Wrap(err, "read legacy cases", slog.String("file", args[0]))
			}
			imported, err := cliutil.Workspace(cmd).Editor.ImportLegacy(cmd.Context(), data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d cases\n", len(imported))
			return errors.Wrap(err, "write output")
		},
	}
}
