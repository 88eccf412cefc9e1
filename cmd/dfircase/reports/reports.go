package reports

import (
	"fmt"
	"github.com/myrjola/dfircase/cmd/dfircase/cliutil"
	"github.com/myrjola/dfircase/internal/analysis"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/report"
	"github.com/myrjola/dfircase/internal/repositories"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
	"path/filepath"
)

var Group = &cobra.Group{
	ID:    "reports",
	Title: "Reports",
}

// Commands returns the analysis and export commands.
func Commands() []*cobra.Command {
	return []*cobra.Command{analyzeCmd(), exportCmd(), exportSectionCmd()}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "analyze [id]",
		GroupID: Group.ID,
		Short:   "Ask the summarization service for a threat assessment",
		Long:    "Analyzes the case with the summarization service and stores the assessment on the case.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := cliutil.Workspace(cmd)
			if err := ws.StartAnalysis(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return errors.Wrap(cliutil.ErrCaseNotFound, "analyze", slog.String("id", args[0]))
				}
				return err
			}
			status, err := ws.Analyses.Wait(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrap(err, "wait for analysis")
			}
			if status.State == analysis.StateFailed {
				return errors.Wrap(status.Err(), "analysis failed")
			}
			return cliutil.PrintJSON(cmd, status.Report)
		},
	}
}

// save writes doc into dir, or to the command output when dir is "-".
func save(cmd *cobra.Command, dir string, doc report.Document) error {
	if dir == "-" {
		_, err := cmd.OutOrStdout().Write(doc.Data)
		return errors.Wrap(err, "write output")
	}
	path := filepath.Join(dir, doc.Filename)
	if err := os.WriteFile(path, doc.Data, 0o600); err != nil { //nolint:mnd // owner read/write
		return errors.Wrap(err, "write document", slog.String("path", path))
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
	return errors.Wrap(err, "write output")
}

func notFound(err error, id string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return errors.Wrap(cliutil.ErrCaseNotFound, "export", slog.String("id", id))
	}
	return err
}

func exportCmd() *cobra.Command {
	var sourceName, formatName, out string
	cmd := &cobra.Command{
		Use:     "export [id]",
		GroupID: Group.ID,
		Short:   "Export the case report",
		Long: `Exports the case report as txt, csv, json, doc, or pdf.

The standard source assembles the report from the case. The ai source asks the summarization service to
compose it and caches the result on the case.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := report.ParseSource(sourceName)
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}
			doc, err := cliutil.Workspace(cmd).Exporter.Export(cmd.Context(), args[0], source, format)
			if err != nil {
				return notFound(err, args[0])
			}
			return save(cmd, out, doc)
		},
	}
	f := cmd.Flags()
	f.StringVar(&sourceName, "source", string(report.SourceStandard), "standard or ai")
	f.StringVar(&formatName, "format", string(report.FormatTXT), "txt, csv, json, doc, or pdf")
	f.StringVar(&out, "out", ".", "output directory, - for standard output")
	return cmd
}

func exportSectionCmd() *cobra.Command {
	var formatName, out string
	cmd := &cobra.Command{
		Use:       "export-section [id] [notes|tasks|iocs|timeline]",
		GroupID:   Group.ID,
		Short:     "Export one section of the analyst notebook",
		Args:      cobra.ExactArgs(2), //nolint:mnd // id and section
		ValidArgs: []string{"notes", "tasks", "iocs", "timeline"},
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := report.ParseSection(args[1])
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}
			doc, err := cliutil.Workspace(cmd).Exporter.ExportSection(cmd.Context(), args[0], section, format)
			if err != nil {
				return notFound(err, args[0])
			}
			return save(cmd, out, doc)
		},
	}
	f := cmd.Flags()
	f.StringVar(&formatName, "format", string(report.FormatTXT), "txt, csv, or pdf")
	f.StringVar(&out, "out", ".", "output directory, - for standard output")
	return cmd
}
