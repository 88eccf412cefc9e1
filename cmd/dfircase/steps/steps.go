package steps

import (
	"fmt"
	"github.com/myrjola/dfircase/cmd/dfircase/cliutil"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"github.com/spf13/cobra"
	"text/tabwriter"
)

var Group = &cobra.Group{
	ID:    "catalog",
	Title: "Step catalog",
}

// Commands returns the step catalog commands.
func Commands() []*cobra.Command {
	var (
		phase  string
		asJSON bool
	)
	list := &cobra.Command{
		Use:     "catalog",
		GroupID: Group.ID,
		Short:   "List the forensic steps",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := cliutil.Workspace(cmd).Steps
			steps := catalog.Steps()
			if phase != "" {
				steps = catalog.ForPhase(models.Phase(phase))
			}
			if asJSON {
				return cliutil.PrintJSON(cmd, steps)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding
			_, _ = fmt.Fprintln(w, "ID\tPHASE\tTITLE\tTOOL")
			for _, s := range steps {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Phase, s.Title, s.ToolLabel())
			}
			return errors.Wrap(w.Flush(), "write table")
		},
	}
	f := list.Flags()
	f.StringVar(&phase, "phase", "", "only steps of phase, e.g. MEMORY")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return []*cobra.Command{list}
}
